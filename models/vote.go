package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating — оценка участника текущей недели (1..5), одна на пару (user_id, participant_id).
type Rating struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	ParticipantID uuid.UUID `json:"participant_id" db:"participant_id"`
	Rating        int       `json:"rating" db:"rating"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)

type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteDislike VoteType = "dislike"
)

func (v VoteType) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

// NextWeekVote — голос за кандидата следующей недели.
type NextWeekVote struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	ParticipantID uuid.UUID `json:"participant_id" db:"participant_id"`
	VoteType      VoteType  `json:"vote_type" db:"vote_type"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Like — лайк карточки участника.
type Like struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	ParticipantID uuid.UUID `json:"participant_id" db:"participant_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ParticipantVotes bundles everything the admin sees for one participant.
type ParticipantVotes struct {
	Ratings       []Rating       `json:"ratings"`
	Likes         []Like         `json:"likes"`
	NextWeekVotes []NextWeekVote `json:"next_week_votes"`
	LikeCount     int            `json:"like_count"`
	DislikeCount  int            `json:"dislike_count"`
}
