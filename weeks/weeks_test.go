package weeks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/weekly-contest/models"
)

func TestIntervalLabelKnownDate(t *testing.T) {
	wednesday := time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "13/10-19/10/25", IntervalLabel(wednesday, 0))
	assert.Equal(t, "06/10-12/10/25", IntervalLabel(wednesday, -1))
	assert.Equal(t, "20/10-26/10/25", IntervalLabel(wednesday, 1))
}

func TestMondayUTCTreatsSundayAsLastDay(t *testing.T) {
	sunday := time.Date(2025, 10, 19, 23, 59, 0, 0, time.UTC)
	monday := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC), MondayUTC(sunday))
	assert.Equal(t, monday, MondayUTC(monday))
}

func TestMondayUTCConvertsFromOtherZones(t *testing.T) {
	// Monday 01:00 in UTC+3 is still Sunday in UTC.
	loc := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2025, 10, 20, 1, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC), MondayUTC(local))
}

func TestBoundsAlwaysMondayToSunday(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 800; day += 3 {
		now := base.AddDate(0, 0, day).Add(time.Duration(day%24) * time.Hour)
		for offset := 0; offset >= -60; offset-- {
			start, end := Bounds(now, offset)
			require.Equal(t, time.Monday, start.Weekday(), "now=%s offset=%d", now, offset)
			require.Equal(t, 0, start.Hour())
			require.Equal(t, 0, start.Minute())
			require.Equal(t, 0, start.Second())
			require.Equal(t, 0, start.Nanosecond())
			require.Equal(t, 6*24*time.Hour+23*time.Hour+59*time.Minute+59*time.Second+999*time.Millisecond, end.Sub(start))
			require.Equal(t, time.UTC, start.Location())
		}
	}
}

func TestLabelAcrossNewYear(t *testing.T) {
	now := time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)
	label := IntervalLabel(now, 0)
	assert.Equal(t, "29/12-04/01/26", label)

	start, err := ParseLabel(label)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), start)
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		want    time.Time
		wantErr bool
	}{
		{name: "regular week", label: "13/10-19/10/25", want: time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)},
		{name: "month boundary", label: "27/10-02/11/25", want: time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC)},
		{name: "not a monday", label: "14/10-20/10/25", wantErr: true},
		{name: "garbage", label: "next week", wantErr: true},
		{name: "unpadded", label: "6/10-12/10/25", wantErr: true},
		{name: "empty", label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabel(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsetFor(t *testing.T) {
	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)

	offset, err := OffsetFor(now, "06/10-12/10/25")
	require.NoError(t, err)
	assert.Equal(t, -1, offset)

	offset, err = OffsetFor(now, "27/10-02/11/25")
	require.NoError(t, err)
	assert.Equal(t, 2, offset)
}

func TestIntervalForStatus(t *testing.T) {
	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		status  models.AdminStatus
		current string
		want    string
	}{
		{models.StatusThisWeek, "06/10-12/10/25", "13/10-19/10/25"},
		{models.StatusNextWeek, "", "20/10-26/10/25"},
		{models.StatusPreNextWeek, "", "27/10-02/11/25"},
		{models.StatusPast, "13/10-19/10/25", "13/10-19/10/25"},
		{models.StatusPast, "", "06/10-12/10/25"},
		{models.StatusRejected, "20/10-26/10/25", "20/10-26/10/25"},
		{models.StatusPending, "", "13/10-19/10/25"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+tt.current, func(t *testing.T) {
			assert.Equal(t, tt.want, IntervalForStatus(tt.status, now, tt.current))
		})
	}
}
