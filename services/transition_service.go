package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/weekly-contest/metrics"
	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/weeks"
)

// TransitionService — обёртка над серверной процедурой недельной ротации.
// Сама ротация выполняется в БД, сервис только вызывает её и показывает счётчики.
type TransitionService struct {
	rpc          repositories.RPCRepository
	participants repositories.ParticipantRepository
	events       EventPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

func NewTransitionService(
	rpc repositories.RPCRepository,
	participants repositories.ParticipantRepository,
	events EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *TransitionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransitionService{rpc: rpc, participants: participants, events: events, metrics: m, logger: logger, now: time.Now}
}

// CurrentMonday returns the database's notion of the current week start.
func (s *TransitionService) CurrentMonday(ctx context.Context) (time.Time, error) {
	monday, err := s.rpc.CurrentMondayUTC(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get current monday: %w", err)
	}
	return monday, nil
}

// Preview returns the counts per status as they are now.
func (s *TransitionService) Preview(ctx context.Context) (map[models.AdminStatus]int, error) {
	counts, err := s.participants.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range models.AllAdminStatuses {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

// Run invokes transition_weekly_contest. A zero targetWeekStart means the
// database's current Monday.
func (s *TransitionService) Run(ctx context.Context, targetWeekStart time.Time, dryRun bool) (*models.TransitionResult, error) {
	if targetWeekStart.IsZero() {
		monday, err := s.CurrentMonday(ctx)
		if err != nil {
			return nil, err
		}
		targetWeekStart = monday
	}
	targetWeekStart = targetWeekStart.UTC()
	if !weeks.MondayUTC(targetWeekStart).Equal(targetWeekStart) {
		return nil, fmt.Errorf("%w: target week start %s is not a Monday 00:00 UTC", ErrValidationFailed, targetWeekStart.Format(time.RFC3339))
	}

	before, err := s.Preview(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants before transition: %w", err)
	}

	started := s.now()
	raw, err := s.rpc.TransitionWeeklyContest(ctx, targetWeekStart, dryRun)
	s.metrics.TransitionRun(dryRun, err, s.now().Sub(started))
	if err != nil {
		s.logger.Error("weekly transition failed", "target_week_start", targetWeekStart, "dry_run", dryRun, "error", err)
		return nil, fmt.Errorf("weekly transition failed: %w", err)
	}

	result := &models.TransitionResult{
		TargetWeekStart: targetWeekStart,
		DryRun:          dryRun,
		Before:          before,
		Raw:             raw,
	}
	if dryRun {
		result.After = countsFromRaw(raw)
	} else {
		after, err := s.Preview(ctx)
		if err != nil {
			s.logger.Warn("failed to count participants after transition", "error", err)
		} else {
			result.After = after
		}
		if s.events != nil {
			payload := map[string]string{"target_week_start": targetWeekStart.Format("2006-01-02")}
			s.events.Publish(realtime.RoomAdmin, realtime.EventWeeklyTransition, payload)
			s.events.Publish(realtime.RoomContest, realtime.EventWeeklyTransition, payload)
		}
	}

	s.logger.Info("weekly transition finished",
		"target_week_start", targetWeekStart.Format("2006-01-02"),
		"dry_run", dryRun,
		"before", before,
		"after", result.After,
	)
	return result, nil
}

// countsFromRaw picks projected counts out of a dry-run result when the procedure
// reports them as {"after": {"status": n}} or {"counts": {...}}.
func countsFromRaw(raw json.RawMessage) map[models.AdminStatus]int {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	for _, key := range []string{"after", "counts"} {
		v, ok := body[key]
		if !ok {
			continue
		}
		var counts map[models.AdminStatus]int
		if err := json.Unmarshal(v, &counts); err == nil && len(counts) > 0 {
			return counts
		}
	}
	return nil
}
