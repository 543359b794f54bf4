package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/weeks"
	"github.com/google/uuid"
)

const maxPublicPhotoIDs = 100

// PublicParticipant is what anonymous visitors see: no contacts, no moderation data.
type PublicParticipant struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	Status        models.AdminStatus `json:"status"`
	WeekInterval  string             `json:"week_interval"`
	FirstName     string             `json:"first_name,omitempty"`
	LastName      string             `json:"last_name,omitempty"`
	Age           *int               `json:"age,omitempty"`
	City          string             `json:"city,omitempty"`
	Country       string             `json:"country,omitempty"`
	Photos        []string           `json:"photos"`
	FinalRank     *int               `json:"final_rank,omitempty"`
	AverageRating *float64           `json:"average_rating,omitempty"`
	TotalVotes    *int               `json:"total_votes,omitempty"`
}

type WeekSection struct {
	WeekInterval string              `json:"week_interval"`
	StartsOn     *time.Time          `json:"starts_on,omitempty"`
	Participants []PublicParticipant `json:"participants"`
}

type ContestWeeks struct {
	ThisWeek  []PublicParticipant `json:"this_week"`
	NextWeek  []PublicParticipant `json:"next_week"`
	PastWeeks []WeekSection       `json:"past_weeks"`
}

// ContestService отдаёт публичные разделы конкурса по неделям.
type ContestService struct {
	participants repositories.ParticipantRepository
	rpc          repositories.RPCRepository
}

func NewContestService(participants repositories.ParticipantRepository, rpc repositories.RPCRepository) *ContestService {
	return &ContestService{participants: participants, rpc: rpc}
}

func (s *ContestService) Weeks(ctx context.Context, country string) (*ContestWeeks, error) {
	rows, _, err := s.participants.List(ctx, repositories.ParticipantFilter{
		Statuses: []models.AdminStatus{models.StatusThisWeek, models.StatusNextWeek, models.StatusPast},
		Country:  country,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load contest participants: %w", err)
	}
	return BuildContestWeeks(rows), nil
}

// BuildContestWeeks splits participants into public sections. Past weeks are grouped
// by week_interval, newest first; labels that do not parse go last.
func BuildContestWeeks(rows []*models.Participant) *ContestWeeks {
	out := &ContestWeeks{
		ThisWeek:  []PublicParticipant{},
		NextWeek:  []PublicParticipant{},
		PastWeeks: []WeekSection{},
	}

	this := FilterParticipants(rows, NotDeleted(), ByStatus(models.StatusThisWeek))
	next := FilterParticipants(rows, NotDeleted(), ByStatus(models.StatusNextWeek))
	past := FilterParticipants(rows, NotDeleted(), ByStatus(models.StatusPast))
	SortParticipants(this)
	SortParticipants(next)

	for _, p := range this {
		out.ThisWeek = append(out.ThisWeek, toPublic(p))
	}
	for _, p := range next {
		out.NextWeek = append(out.NextWeek, toPublic(p))
	}

	groups := make(map[string][]*models.Participant)
	for _, p := range past {
		groups[p.WeekInterval] = append(groups[p.WeekInterval], p)
	}
	for label, members := range groups {
		SortParticipants(members)
		section := WeekSection{WeekInterval: label, Participants: make([]PublicParticipant, 0, len(members))}
		if start, err := weeks.ParseLabel(label); err == nil {
			section.StartsOn = &start
		}
		for _, p := range members {
			section.Participants = append(section.Participants, toPublic(p))
		}
		out.PastWeeks = append(out.PastWeeks, section)
	}
	slices.SortFunc(out.PastWeeks, func(a, b WeekSection) int {
		switch {
		case a.StartsOn == nil && b.StartsOn == nil:
			if a.WeekInterval < b.WeekInterval {
				return -1
			}
			if a.WeekInterval > b.WeekInterval {
				return 1
			}
			return 0
		case a.StartsOn == nil:
			return 1
		case b.StartsOn == nil:
			return -1
		}
		return b.StartsOn.Compare(*a.StartsOn)
	})
	return out
}

func (s *ContestService) RatingStats(ctx context.Context, participantID uuid.UUID) (models.RPCRows, error) {
	return s.rpc.PublicRatingStats(ctx, participantID)
}

func (s *ContestService) Photos(ctx context.Context, userIDs []uuid.UUID) (models.RPCRows, error) {
	if len(userIDs) == 0 {
		return models.RPCRows{}, nil
	}
	if len(userIDs) > maxPublicPhotoIDs {
		return nil, fmt.Errorf("%w: at most %d participant ids per request", ErrValidationFailed, maxPublicPhotoIDs)
	}
	return s.rpc.PublicParticipantPhotos(ctx, userIDs)
}

func toPublic(p *models.Participant) PublicParticipant {
	a := p.ApplicationData
	return PublicParticipant{
		ID:            p.ID,
		UserID:        p.UserID,
		Status:        p.AdminStatus,
		WeekInterval:  p.WeekInterval,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Age:           a.Age,
		City:          a.City,
		Country:       a.Country,
		Photos:        a.Photos(),
		FinalRank:     p.FinalRank,
		AverageRating: p.AverageRating,
		TotalVotes:    p.TotalVotes,
	}
}
