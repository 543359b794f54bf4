package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

type Options struct {
	// ScheduleEnabled registers the Monday periodic job. Without it the client
	// only works jobs enqueued by hand.
	ScheduleEnabled bool
	// RunOnStart fires the periodic job once at startup; the unique week key
	// keeps it from running twice for the same Monday.
	RunOnStart bool
	MaxWorkers int
}

// Service держит River-клиент и отдельный pgx-пул для него (River не работает через database/sql).
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewService(ctx context.Context, dsn string, transitions Transitioner, logger *slog.Logger, opts Options) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "river_queue")

	pool, err := openPool(ctx, dsn)
	if err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewWeeklyTransitionWorker(transitions, logger))

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	cfg := &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
			QueueContest:       {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	}
	if opts.ScheduleEnabled {
		cfg.PeriodicJobs = []*river.PeriodicJob{weeklyTransitionJob(opts.RunOnStart)}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}

	logger.Info("queue service initialized", "schedule_enabled", opts.ScheduleEnabled)
	return &Service{client: client, pool: pool, logger: logger}, nil
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start river client: %w", err)
	}
	s.logger.Info("queue service started")
	return nil
}

// Stop waits for running jobs, then closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop river client: %w", err)
	}
	s.logger.Info("queue service stopped")
	return nil
}

// EnqueueTransition ставит ручной перенос недели. Повтор для той же недели
// возвращает уже существующую задачу.
func (s *Service) EnqueueTransition(ctx context.Context, weekStart time.Time, dryRun bool) (int64, bool, error) {
	res, err := s.client.Insert(ctx, WeeklyTransitionArgs{WeekStart: weekStart.UTC(), DryRun: dryRun}, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to enqueue weekly transition: %w", err)
	}
	return res.Job.ID, res.UniqueSkippedAsDuplicate, nil
}

func (s *Service) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies River's own tables. The service schema lives in db/schema.sql.
func Migrate(ctx context.Context, dsn string, logger *slog.Logger) ([]int, error) {
	pool, err := openPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return nil, fmt.Errorf("failed to run river migrations: %w", err)
	}
	applied := make([]int, 0, len(res.Versions))
	for _, v := range res.Versions {
		applied = append(applied, v.Version)
	}
	return applied, nil
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
