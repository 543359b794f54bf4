package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/weeks"
	"github.com/google/uuid"
)

// ParticipantPage — страница списка участников одной вкладки.
type ParticipantPage struct {
	Tab          Tab                   `json:"tab"`
	Items        []*models.Participant `json:"items"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	Country      string                `json:"country,omitempty"`
	WeekInterval string                `json:"week_interval,omitempty"`
}

// ParticipantDetails is the admin card of one participant.
type ParticipantDetails struct {
	Participant    *models.Participant  `json:"participant"`
	Events         []models.StatusEvent `json:"events"`
	AllowedTargets []models.AdminStatus `json:"allowed_targets"`
}

// ParticipantService инкапсулирует модерацию заявок и жизненный цикл участника.
type ParticipantService struct {
	participants repositories.ParticipantRepository
	rpc          repositories.RPCRepository
	votes        repositories.VoteRepository
	status       *StatusService
	events       EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

func NewParticipantService(
	participants repositories.ParticipantRepository,
	rpc repositories.RPCRepository,
	votes repositories.VoteRepository,
	status *StatusService,
	events EventPublisher,
	logger *slog.Logger,
) *ParticipantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParticipantService{
		participants: participants,
		rpc:          rpc,
		votes:        votes,
		status:       status,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *ParticipantService) ListTab(ctx context.Context, q TabQuery) (*ParticipantPage, error) {
	if _, err := ParseTab(string(q.Tab)); err != nil {
		return nil, err
	}
	q = q.normalized()
	if q.WeekInterval != "" {
		if err := validateWeekInterval(q.WeekInterval); err != nil {
			return nil, err
		}
	}

	items, total, err := s.participants.List(ctx, q.RepositoryFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to list tab %s: %w", q.Tab, err)
	}
	return &ParticipantPage{
		Tab:          q.Tab,
		Items:        items,
		Total:        total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		Country:      q.Country,
		WeekInterval: q.WeekInterval,
	}, nil
}

func (s *ParticipantService) Get(ctx context.Context, id uuid.UUID) (*ParticipantDetails, error) {
	p, err := s.participants.GetByID(ctx, id, true)
	if err != nil {
		return nil, mapParticipantRepoError(err)
	}
	events, err := s.participants.ListStatusEvents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load status events: %w", err)
	}
	targets := []models.AdminStatus{}
	if !p.IsDeleted() {
		targets = AllowedTargets(p.AdminStatus)
	}
	return &ParticipantDetails{Participant: p, Events: events, AllowedTargets: targets}, nil
}

func (s *ParticipantService) ChangeStatus(ctx context.Context, req StatusUpdateRequest) (*models.Participant, error) {
	return s.status.UpdateParticipantStatusWithHistory(ctx, req)
}

// Reject moves the participant to rejected with at least one catalogue reason.
func (s *ParticipantService) Reject(ctx context.Context, id uuid.UUID, actor models.Actor, reasonTypes []string, note string) (*models.Participant, error) {
	normalized, err := normalizeRejectionReasons(reasonTypes)
	if err != nil {
		return nil, err
	}
	return s.status.UpdateParticipantStatusWithHistory(ctx, StatusUpdateRequest{
		ParticipantID:        id,
		Status:               models.StatusRejected,
		Actor:                actor,
		RejectionReason:      &note,
		RejectionReasonTypes: normalized,
	})
}

// Approve accepts an application into the pre next week pool.
func (s *ParticipantService) Approve(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Participant, error) {
	return s.status.UpdateParticipantStatusWithHistory(ctx, StatusUpdateRequest{
		ParticipantID: id,
		Status:        models.StatusPreNextWeek,
		Actor:         actor,
	})
}

func (s *ParticipantService) Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	if err := s.participants.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			// повторное удаление отличаем от несуществующей заявки
			if p, getErr := s.participants.GetByID(ctx, id, true); getErr == nil && p.IsDeleted() {
				return ErrParticipantDeleted
			}
		}
		return mapParticipantRepoError(err)
	}
	s.logger.Info("participant soft deleted", "participant_id", id, "actor", actor.Email)
	s.publish(id, "deleted")
	return nil
}

func (s *ParticipantService) Restore(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	if err := s.participants.Restore(ctx, id); err != nil {
		return mapParticipantRepoError(err)
	}
	s.logger.Info("participant restored", "participant_id", id, "actor", actor.Email)
	s.publish(id, "restored")
	return nil
}

// WeeklyQuery selects one week of the weekly admin RPC. Week (a DD/MM-DD/MM/YY
// label) takes precedence over Offset.
type WeeklyQuery struct {
	Offset   int
	Week     string
	Country  string
	Page     int
	PageSize int
}

type WeeklyPage struct {
	Offset       int                   `json:"offset"`
	WeekInterval string                `json:"week_interval"`
	Items        []*models.Participant `json:"items"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
}

// Weekly returns one page of the week's participants as reported by the database,
// filtered by country and sorted.
func (s *ParticipantService) Weekly(ctx context.Context, q WeeklyQuery) (*WeeklyPage, error) {
	now := s.now()
	offset := q.Offset
	if week := strings.TrimSpace(q.Week); week != "" {
		o, err := weeks.OffsetFor(now, week)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWeekInterval, err)
		}
		offset = o
	}

	rows, err := s.rpc.WeeklyParticipantsAdmin(ctx, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly participants: %w", err)
	}
	all := FilterParticipants(rows, NotDeleted(), ByCountry(q.Country))
	SortParticipants(all)

	paging := TabQuery{Page: q.Page, PageSize: q.PageSize}.normalized()
	return &WeeklyPage{
		Offset:       offset,
		WeekInterval: weeks.IntervalLabel(now, offset),
		Items:        Paginate(all, paging.Page, paging.PageSize),
		Total:        len(all),
		Page:         paging.Page,
		PageSize:     paging.PageSize,
	}, nil
}

func (s *ParticipantService) Votes(ctx context.Context, id uuid.UUID) (*models.ParticipantVotes, error) {
	if _, err := s.participants.GetByID(ctx, id, true); err != nil {
		return nil, mapParticipantRepoError(err)
	}
	ratings, err := s.votes.ListRatings(ctx, id)
	if err != nil {
		return nil, err
	}
	likes, err := s.votes.ListLikes(ctx, id)
	if err != nil {
		return nil, err
	}
	nextWeek, err := s.votes.ListNextWeekVotes(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &models.ParticipantVotes{Ratings: ratings, Likes: likes, NextWeekVotes: nextWeek}
	for _, v := range nextWeek {
		switch v.VoteType {
		case models.VoteLike:
			out.LikeCount++
		case models.VoteDislike:
			out.DislikeCount++
		}
	}
	return out, nil
}

func (s *ParticipantService) publish(id uuid.UUID, action string) {
	if s.events == nil {
		return
	}
	s.events.Publish(realtime.RoomAdmin, realtime.EventParticipantsChanged,
		map[string]string{"participant_id": id.String(), "action": action})
}

func mapParticipantRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrParticipantNotFound
	case errors.Is(err, repositories.ErrParticipantNotDeleted):
		return ErrParticipantNotDeleted
	case errors.Is(err, repositories.ErrParticipantUserConflict):
		return fmt.Errorf("%w: %v", ErrStatusConflict, err)
	}
	return err
}
