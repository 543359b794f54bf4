package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/weekly-contest/metrics"
	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/google/uuid"
)

// VotingService принимает голоса посетителей: оценки участникам текущей недели
// и like/dislike кандидатам следующей.
type VotingService struct {
	participants repositories.ParticipantRepository
	votes        repositories.VoteRepository
	events       EventPublisher
	metrics      *metrics.Metrics
}

func NewVotingService(
	participants repositories.ParticipantRepository,
	votes repositories.VoteRepository,
	events EventPublisher,
	m *metrics.Metrics,
) *VotingService {
	return &VotingService{participants: participants, votes: votes, events: events, metrics: m}
}

func (s *VotingService) Rate(ctx context.Context, actor models.Actor, participantID uuid.UUID, rating int) (*models.Rating, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, ErrInvalidRating
	}
	if err := s.requireStatus(ctx, participantID, models.StatusThisWeek); err != nil {
		return nil, err
	}

	r := &models.Rating{UserID: actor.UserID, ParticipantID: participantID, Rating: rating}
	if err := s.votes.UpsertRating(ctx, r); err != nil {
		return nil, mapVoteRepoError(err)
	}
	s.metrics.VoteAccepted("rating")
	s.publish(participantID)
	return r, nil
}

func (s *VotingService) VoteNextWeek(ctx context.Context, actor models.Actor, participantID uuid.UUID, vote models.VoteType) (*models.NextWeekVote, error) {
	if !vote.Valid() {
		return nil, ErrInvalidVoteType
	}
	if err := s.requireStatus(ctx, participantID, models.StatusNextWeek); err != nil {
		return nil, err
	}

	v := &models.NextWeekVote{UserID: actor.UserID, ParticipantID: participantID, VoteType: vote}
	if err := s.votes.UpsertNextWeekVote(ctx, v); err != nil {
		return nil, mapVoteRepoError(err)
	}
	s.metrics.VoteAccepted("next_week_" + string(vote))
	s.publish(participantID)
	return v, nil
}

func (s *VotingService) requireStatus(ctx context.Context, participantID uuid.UUID, want models.AdminStatus) error {
	p, err := s.participants.GetByID(ctx, participantID, false)
	if err != nil {
		return mapParticipantRepoError(err)
	}
	if p.AdminStatus != want {
		return fmt.Errorf("%w: participant is %q", ErrVotingClosed, p.AdminStatus)
	}
	return nil
}

func (s *VotingService) publish(participantID uuid.UUID) {
	if s.events == nil {
		return
	}
	s.events.Publish(realtime.RoomContest, realtime.EventVotesChanged, map[string]string{"participant_id": participantID.String()})
}

func mapVoteRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrVoteParticipantInvalid):
		return ErrParticipantNotFound
	case errors.Is(err, repositories.ErrRatingOutOfRange):
		return ErrInvalidRating
	}
	return fmt.Errorf("failed to store vote: %w", err)
}
