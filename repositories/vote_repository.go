package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrVoteParticipantInvalid = errors.New("vote references an unknown participant")
	ErrRatingOutOfRange       = errors.New("rating violates range constraint")
)

type VoteRepository interface {
	UpsertRating(ctx context.Context, rating *models.Rating) error
	UpsertNextWeekVote(ctx context.Context, vote *models.NextWeekVote) error
	ListRatings(ctx context.Context, participantID uuid.UUID) ([]models.Rating, error)
	ListLikes(ctx context.Context, participantID uuid.UUID) ([]models.Like, error)
	ListNextWeekVotes(ctx context.Context, participantID uuid.UUID) ([]models.NextWeekVote, error)
}

type postgresVoteRepository struct {
	db *sql.DB
}

func NewPostgresVoteRepository(db *sql.DB) VoteRepository {
	return &postgresVoteRepository{db: db}
}

func (r *postgresVoteRepository) UpsertRating(ctx context.Context, rating *models.Rating) error {
	query := `
		INSERT INTO contestant_ratings (user_id, participant_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, participant_id)
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
		RETURNING id, created_at, COALESCE(updated_at, created_at)`

	err := r.db.QueryRowContext(ctx, query, rating.UserID, rating.ParticipantID, rating.Rating).
		Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
	return r.handleVoteError(err)
}

func (r *postgresVoteRepository) UpsertNextWeekVote(ctx context.Context, vote *models.NextWeekVote) error {
	query := `
		INSERT INTO next_week_votes (user_id, participant_id, vote_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, participant_id)
		DO UPDATE SET vote_type = EXCLUDED.vote_type
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, vote.UserID, vote.ParticipantID, string(vote.VoteType)).
		Scan(&vote.ID, &vote.CreatedAt)
	return r.handleVoteError(err)
}

func (r *postgresVoteRepository) ListRatings(ctx context.Context, participantID uuid.UUID) ([]models.Rating, error) {
	query := `
		SELECT id, user_id, participant_id, rating, created_at, COALESCE(updated_at, created_at)
		FROM contestant_ratings
		WHERE participant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.ParticipantID, &rt.Rating, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}

func (r *postgresVoteRepository) ListLikes(ctx context.Context, participantID uuid.UUID) ([]models.Like, error) {
	query := `
		SELECT id, user_id, participant_id, created_at
		FROM likes
		WHERE participant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	likes := make([]models.Like, 0)
	for rows.Next() {
		var l models.Like
		if err := rows.Scan(&l.ID, &l.UserID, &l.ParticipantID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

func (r *postgresVoteRepository) ListNextWeekVotes(ctx context.Context, participantID uuid.UUID) ([]models.NextWeekVote, error) {
	query := `
		SELECT id, user_id, participant_id, vote_type, created_at
		FROM next_week_votes
		WHERE participant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list next week votes: %w", err)
	}
	defer rows.Close()

	votes := make([]models.NextWeekVote, 0)
	for rows.Next() {
		var v models.NextWeekVote
		if err := rows.Scan(&v.ID, &v.UserID, &v.ParticipantID, &v.VoteType, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan next week vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *postgresVoteRepository) handleVoteError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			return ErrVoteParticipantInvalid
		case "23514": // check_violation
			return ErrRatingOutOfRange
		}
	}
	return fmt.Errorf("vote query failed: %w", err)
}
