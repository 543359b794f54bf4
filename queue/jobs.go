package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/weeks"
	"github.com/riverqueue/river"
)

const QueueContest = "contest"

// WeeklyTransitionArgs — задача переноса недели. WeekStart входит в уникальность,
// поэтому на одну неделю в очереди не бывает двух живых запусков.
type WeeklyTransitionArgs struct {
	WeekStart time.Time `json:"week_start"`
	DryRun    bool      `json:"dry_run"`
}

func (WeeklyTransitionArgs) Kind() string { return "weekly_transition" }

func (WeeklyTransitionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueContest,
		MaxAttempts: 5,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	}
}

// mondaySchedule fires at every Monday 00:00 UTC.
type mondaySchedule struct{}

func (mondaySchedule) Next(current time.Time) time.Time {
	start, _ := weeks.Bounds(current, 1)
	return start
}

// Transitioner is the part of the transition service the worker needs.
type Transitioner interface {
	Run(ctx context.Context, targetWeekStart time.Time, dryRun bool) (*models.TransitionResult, error)
}

type WeeklyTransitionWorker struct {
	river.WorkerDefaults[WeeklyTransitionArgs]
	transitions Transitioner
	logger      *slog.Logger
}

func NewWeeklyTransitionWorker(transitions Transitioner, logger *slog.Logger) *WeeklyTransitionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyTransitionWorker{transitions: transitions, logger: logger}
}

func (w *WeeklyTransitionWorker) Work(ctx context.Context, job *river.Job[WeeklyTransitionArgs]) error {
	target := job.Args.WeekStart
	if target.IsZero() {
		target = weeks.MondayUTC(time.Now())
	}

	log := w.logger.With("job_id", job.ID, "attempt", job.Attempt, "week_start", target.Format("2006-01-02"))
	log.Info("running weekly transition", "dry_run", job.Args.DryRun)

	res, err := w.transitions.Run(ctx, target, job.Args.DryRun)
	if err != nil {
		log.Error("weekly transition failed", "error", err)
		return fmt.Errorf("weekly transition for %s: %w", target.Format("2006-01-02"), err)
	}
	log.Info("weekly transition finished", "before", res.Before, "after", res.After)
	return nil
}

func (w *WeeklyTransitionWorker) Timeout(*river.Job[WeeklyTransitionArgs]) time.Duration {
	return 2 * time.Minute
}

// weeklyTransitionJob is registered as a periodic job; the args are built when it fires.
func weeklyTransitionJob(runOnStart bool) *river.PeriodicJob {
	return river.NewPeriodicJob(
		mondaySchedule{},
		func() (river.JobArgs, *river.InsertOpts) {
			return WeeklyTransitionArgs{WeekStart: weeks.MondayUTC(time.Now())}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: runOnStart},
	)
}
