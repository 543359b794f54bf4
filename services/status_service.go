package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/weekly-contest/metrics"
	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/weeks"
	"github.com/google/uuid"
)

// EventPublisher pushes change notifications to websocket subscribers.
type EventPublisher interface {
	Publish(room, eventType string, payload interface{})
}

// StatusUpdateRequest — входные данные единственного пути смены admin_status.
type StatusUpdateRequest struct {
	ParticipantID        uuid.UUID
	Status               models.AdminStatus
	DisplayName          string
	Actor                models.Actor
	RejectionReason      *string
	RejectionReasonTypes []string
	// WeekInterval overrides the interval computed from Status.
	WeekInterval *string
}

type StatusService struct {
	participants repositories.ParticipantRepository
	tx           repositories.TxRunner
	guard        InFlightGuard
	events       EventPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

func NewStatusService(
	participants repositories.ParticipantRepository,
	tx repositories.TxRunner,
	guard InFlightGuard,
	events EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *StatusService {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusService{
		participants: participants,
		tx:           tx,
		guard:        guard,
		events:       events,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// UpdateParticipantStatusWithHistory moves a participant to req.Status, storing
// a history entry under the target status and an audit event. The write only
// applies while the row still has the status that was read.
func (s *StatusService) UpdateParticipantStatusWithHistory(ctx context.Context, req StatusUpdateRequest) (*models.Participant, error) {
	if !req.Status.Valid() {
		s.metrics.StatusChangeFailed("invalid_status")
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	if req.WeekInterval != nil {
		if err := validateWeekInterval(*req.WeekInterval); err != nil {
			return nil, err
		}
	}

	reasonTypes := req.RejectionReasonTypes
	if req.Status == models.StatusRejected && len(reasonTypes) > 0 {
		normalized, err := normalizeRejectionReasons(reasonTypes)
		if err != nil {
			return nil, err
		}
		reasonTypes = normalized
	}

	release, err := s.guard.TryAcquire(ctx, req.ParticipantID)
	if err != nil {
		if errors.Is(err, ErrStatusUpdateInProgress) {
			s.metrics.GuardContended()
		}
		return nil, err
	}
	defer release()

	current, err := s.participants.GetByID(ctx, req.ParticipantID, false)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to load participant %s: %w", req.ParticipantID, err)
	}

	if !IsAllowedTransition(current.AdminStatus, req.Status) {
		s.metrics.StatusChangeFailed("transition")
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.AdminStatus, req.Status)
	}

	now := s.now().UTC()
	interval := weeks.IntervalForStatus(req.Status, now, current.WeekInterval)
	if req.WeekInterval != nil {
		interval = *req.WeekInterval
	}

	var changedBy *uuid.UUID
	if req.Actor.UserID != uuid.Nil {
		id := req.Actor.UserID
		changedBy = &id
	}

	change := repositories.StatusChange{
		ParticipantID:  req.ParticipantID,
		ExpectedStatus: current.AdminStatus,
		NewStatus:      req.Status,
		WeekInterval:   interval,
		Entry: models.StatusHistoryEntry{
			ChangedAt:      now,
			ChangedBy:      changedBy,
			ChangedByEmail: req.Actor.Email,
			WeekInterval:   interval,
		},
		Review: reviewFieldsFor(current.AdminStatus, req, reasonTypes, changedBy, now),
	}

	var updated *models.Participant
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		p, err := s.participants.ApplyStatusChange(ctx, exec, change)
		if err != nil {
			return err
		}
		from := current.AdminStatus
		event := &models.StatusEvent{
			ParticipantID: req.ParticipantID,
			FromStatus:    &from,
			ToStatus:      req.Status,
			WeekInterval:  interval,
			ChangedBy:     changedBy,
			ChangedByMail: req.Actor.Email,
		}
		if err := s.participants.InsertStatusEvent(ctx, exec, event); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantStatusStale) {
			s.metrics.StatusChangeFailed("conflict")
			return nil, ErrStatusConflict
		}
		if errors.Is(err, repositories.ErrParticipantUserConflict) {
			s.metrics.StatusChangeFailed("conflict")
			return nil, fmt.Errorf("%w: %v", ErrStatusConflict, err)
		}
		s.logger.Error("participant status update failed",
			"participant_id", req.ParticipantID, "to", req.Status, "error", err)
		return nil, fmt.Errorf("failed to update participant status: %w", err)
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = updated.DisplayName()
	}
	s.metrics.StatusChanged(string(current.AdminStatus), string(req.Status))
	s.logger.Info("participant status updated",
		"participant_id", req.ParticipantID,
		"name", name,
		"from", current.AdminStatus,
		"to", req.Status,
		"week_interval", interval,
		"actor", req.Actor.Email,
	)
	s.publishChange(updated.ID, current.AdminStatus, req.Status)
	return updated, nil
}

// reviewFieldsFor returns the moderation fields written together with the change.
// Leaving pending or rejected for an active status is an approval and clears the rejection.
// Returning a rejected application to pending only clears the rejection.
func reviewFieldsFor(from models.AdminStatus, req StatusUpdateRequest, reasonTypes []string, by *uuid.UUID, now time.Time) *repositories.ReviewFields {
	if req.Status == models.StatusRejected {
		return &repositories.ReviewFields{
			ReviewedBy:           by,
			ReviewedAt:           now,
			RejectionReason:      trimmedOrNil(req.RejectionReason),
			RejectionReasonTypes: reasonTypes,
		}
	}
	if from == models.StatusRejected && req.Status == models.StatusPending {
		return &repositories.ReviewFields{KeepReviewer: true}
	}
	if (from == models.StatusPending || from == models.StatusRejected) && req.Status != models.StatusPending {
		return &repositories.ReviewFields{ReviewedBy: by, ReviewedAt: now}
	}
	return nil
}

func (s *StatusService) publishChange(id uuid.UUID, from, to models.AdminStatus) {
	if s.events == nil {
		return
	}
	payload := map[string]string{"participant_id": id.String(), "from": string(from), "to": string(to)}
	s.events.Publish(realtime.RoomAdmin, realtime.EventParticipantsChanged, payload)
	if isPublicStatus(from) || isPublicStatus(to) {
		s.events.Publish(realtime.RoomContest, realtime.EventParticipantsChanged, payload)
	}
}

func isPublicStatus(s models.AdminStatus) bool {
	return s == models.StatusNextWeek || s == models.StatusThisWeek || s == models.StatusPast
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
