package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/google/uuid"
)

// InFlightGuard prevents two status updates for the same participant from running at once.
// TryAcquire returns ErrStatusUpdateInProgress when the participant is already held.
type InFlightGuard interface {
	TryAcquire(ctx context.Context, participantID uuid.UUID) (release func(), err error)
}

// MemoryGuard holds ids in process memory. Used when redis is not configured.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[uuid.UUID]struct{})}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, participantID uuid.UUID) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[participantID]; busy {
		return nil, ErrStatusUpdateInProgress
	}
	g.held[participantID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, participantID)
			g.mu.Unlock()
		})
	}, nil
}

const (
	defaultGuardTTL     = 30 * time.Second
	guardKeyPrefix      = "weekly-contest:status-update:"
	guardReleaseTimeout = 2 * time.Second
)

// RedisGuard shares the guard between API instances. If redis fails the
// local guard is used so that admins are not blocked by a cache outage.
type RedisGuard struct {
	locks    repositories.LockRepository
	ttl      time.Duration
	fallback *MemoryGuard
	logger   *slog.Logger
}

func NewRedisGuard(locks repositories.LockRepository, ttl time.Duration, logger *slog.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisGuard{locks: locks, ttl: ttl, fallback: NewMemoryGuard(), logger: logger}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, participantID uuid.UUID) (func(), error) {
	key := guardKeyPrefix + participantID.String()
	token := uuid.NewString()

	ok, err := g.locks.Acquire(ctx, key, token, g.ttl)
	if err != nil {
		g.logger.Warn("redis guard unavailable, using local guard", "participant_id", participantID, "error", err)
		return g.fallback.TryAcquire(ctx, participantID)
	}
	if !ok {
		return nil, ErrStatusUpdateInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), guardReleaseTimeout)
			defer cancel()
			if _, err := g.locks.Release(rctx, key, token); err != nil {
				g.logger.Warn("failed to release status guard, it will expire", "participant_id", participantID, "error", err)
			}
		})
	}, nil
}
