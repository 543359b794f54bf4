// Package weeks computes Monday-anchored contest weeks in UTC and their
// DD/MM-DD/MM/YY labels.
package weeks

import (
	"fmt"
	"time"

	"github.com/Dosada05/weekly-contest/models"
)

const labelLayout = "02/01"

// lastInstant is the offset from Monday 00:00 to Sunday 23:59:59.999.
const lastInstant = 7*24*time.Hour - time.Millisecond

// MondayUTC returns Monday 00:00 UTC of the week containing t.
// Sunday belongs to the week that started six days earlier.
func MondayUTC(t time.Time) time.Time {
	t = t.UTC()
	dow := int(t.Weekday())
	daysFromMonday := dow - 1
	if dow == 0 {
		daysFromMonday = 6
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -daysFromMonday)
}

// Bounds returns the first and last instant of the week offset weeks away
// from the one containing now (0 = current, negative = past).
func Bounds(now time.Time, offset int) (time.Time, time.Time) {
	start := MondayUTC(now).AddDate(0, 0, 7*offset)
	return start, start.Add(lastInstant)
}

// Label renders a week as DD/MM-DD/MM/YY, the year taken from end.
func Label(start, end time.Time) string {
	start, end = start.UTC(), end.UTC()
	return fmt.Sprintf("%s-%s/%02d", start.Format(labelLayout), end.Format(labelLayout), end.Year()%100)
}

func IntervalLabel(now time.Time, offset int) string {
	return Label(Bounds(now, offset))
}

// ParseLabel returns the Monday a label starts on.
func ParseLabel(label string) (time.Time, error) {
	var sd, sm, ed, em, yy int
	n, err := fmt.Sscanf(label, "%d/%d-%d/%d/%d", &sd, &sm, &ed, &em, &yy)
	if err != nil || n != 5 {
		return time.Time{}, fmt.Errorf("invalid week interval %q", label)
	}

	endYear := 2000 + yy
	end := time.Date(endYear, time.Month(em), ed, 0, 0, 0, 0, time.UTC)
	startYear := endYear
	if sm > em {
		// week crosses New Year
		startYear--
	}
	start := time.Date(startYear, time.Month(sm), sd, 0, 0, 0, 0, time.UTC)

	if start.Weekday() != time.Monday || end.Sub(start) != 6*24*time.Hour {
		return time.Time{}, fmt.Errorf("week interval %q is not a Monday-Sunday week", label)
	}
	if Label(start, start.Add(lastInstant)) != label {
		return time.Time{}, fmt.Errorf("invalid week interval %q", label)
	}
	return start, nil
}

// OffsetFor returns how many weeks the label is away from the week of now.
func OffsetFor(now time.Time, label string) (int, error) {
	start, err := ParseLabel(label)
	if err != nil {
		return 0, err
	}
	diff := start.Sub(MondayUTC(now))
	return int(diff / (7 * 24 * time.Hour)), nil
}

// IntervalForStatus picks the week label a participant entering status
// belongs to. current is the participant's existing label, possibly empty.
func IntervalForStatus(status models.AdminStatus, now time.Time, current string) string {
	switch status {
	case models.StatusThisWeek:
		return IntervalLabel(now, 0)
	case models.StatusNextWeek:
		return IntervalLabel(now, 1)
	case models.StatusPreNextWeek:
		return IntervalLabel(now, 2)
	case models.StatusPast:
		if current != "" {
			return current
		}
		return IntervalLabel(now, -1)
	default:
		if current != "" {
			return current
		}
		return IntervalLabel(now, 0)
	}
}
