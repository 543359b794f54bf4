package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound     = errors.New("participant not found")
	ErrParticipantStatusStale  = errors.New("participant status changed concurrently")
	ErrParticipantNotDeleted   = errors.New("participant is not deleted")
	ErrParticipantUserConflict = errors.New("user already has an active application")
)

// ActiveUserIndex allows one non-deleted pending/pre next week/next week/this week row per user.
const ActiveUserIndex = "weekly_contest_participants_one_active_per_user"

// ParticipantFilter is the SQL side of the admin tab filters.
type ParticipantFilter struct {
	Statuses     []models.AdminStatus
	Country      string
	WeekInterval string
	OnlyDeleted  bool
	Limit        int
	Offset       int
}

// ReviewFields are written together with a status change when the change is a moderation decision.
type ReviewFields struct {
	ReviewedBy           *uuid.UUID
	ReviewedAt           time.Time
	RejectionReason      *string
	RejectionReasonTypes []string
	// KeepReviewer leaves reviewed_at/reviewed_by untouched and only rewrites the rejection fields.
	KeepReviewer bool
}

// StatusChange describes one conditional status update.
type StatusChange struct {
	ParticipantID  uuid.UUID
	ExpectedStatus models.AdminStatus
	NewStatus      models.AdminStatus
	WeekInterval   string
	Entry          models.StatusHistoryEntry
	Review         *ReviewFields
}

type ParticipantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Participant, error)
	List(ctx context.Context, filter ParticipantFilter) ([]*models.Participant, int, error)
	CountByStatus(ctx context.Context) (map[models.AdminStatus]int, error)
	ApplyStatusChange(ctx context.Context, exec SQLExecutor, change StatusChange) (*models.Participant, error)
	InsertStatusEvent(ctx context.Context, exec SQLExecutor, event *models.StatusEvent) error
	ListStatusEvents(ctx context.Context, participantID uuid.UUID) ([]models.StatusEvent, error)
	UpdateApplicationData(ctx context.Context, id uuid.UUID, data models.ApplicationData) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `
	p.id, p.user_id, p.contest_id, p.admin_status, COALESCE(p.week_interval, ''),
	p.status_history, p.application_data, p.final_rank, p.average_rating, p.total_votes,
	p.deleted_at, p.reviewed_at, p.reviewed_by, p.rejection_reason, p.rejection_reason_types, p.created_at`

func participantScanDest(p *models.Participant) []interface{} {
	return []interface{}{
		&p.ID, &p.UserID, &p.ContestID, &p.AdminStatus, &p.WeekInterval,
		&p.StatusHistory, &p.ApplicationData, &p.FinalRank, &p.AverageRating, &p.TotalVotes,
		&p.DeletedAt, &p.ReviewedAt, &p.ReviewedBy, &p.RejectionReason, pq.Array(&p.RejectionReasonTypes), &p.CreatedAt,
	}
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM weekly_contest_participants p WHERE p.id = $1`
	if !includeDeleted {
		query += ` AND p.deleted_at IS NULL`
	}

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(participantScanDest(p)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) List(ctx context.Context, filter ParticipantFilter) ([]*models.Participant, int, error) {
	var wb whereBuilder
	if filter.OnlyDeleted {
		wb.addRaw("p.deleted_at IS NOT NULL")
	} else {
		wb.addRaw("p.deleted_at IS NULL")
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		wb.add("p.admin_status = ANY(?)", pq.Array(statuses))
	}
	if c := strings.TrimSpace(filter.Country); c != "" {
		wb.add("lower(p.application_data->>'country') = lower(?)", c)
	}
	if filter.WeekInterval != "" {
		wb.add("p.week_interval = ?", filter.WeekInterval)
	}

	var qb strings.Builder
	qb.WriteString(`SELECT` + participantColumns + `, COUNT(*) OVER() AS total_count FROM weekly_contest_participants p`)
	qb.WriteString(wb.sql())
	qb.WriteString(` ORDER BY p.final_rank ASC NULLS LAST, p.average_rating DESC NULLS LAST, p.total_votes DESC NULLS LAST, p.created_at ASC, p.id ASC`)
	if filter.Limit > 0 {
		qb.WriteString(" LIMIT " + wb.next(filter.Limit))
	}
	if filter.Offset > 0 {
		qb.WriteString(" OFFSET " + wb.next(filter.Offset))
	}

	rows, err := r.db.QueryContext(ctx, qb.String(), wb.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	total := 0
	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		dest := append(participantScanDest(p), &total)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, total, nil
}

func (r *postgresParticipantRepository) CountByStatus(ctx context.Context) (map[models.AdminStatus]int, error) {
	query := `
		SELECT admin_status, COUNT(*)
		FROM weekly_contest_participants
		WHERE deleted_at IS NULL
		GROUP BY admin_status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AdminStatus]int, len(models.AllAdminStatuses))
	for rows.Next() {
		var status models.AdminStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

// ApplyStatusChange merges the history entry in the database and only succeeds
// while admin_status still holds ExpectedStatus.
func (r *postgresParticipantRepository) ApplyStatusChange(ctx context.Context, exec SQLExecutor, change StatusChange) (*models.Participant, error) {
	executor := r.getExecutor(exec)

	entry, err := json.Marshal(change.Entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status history entry: %w", err)
	}

	var (
		setReviewer  bool
		setRejection bool
		reviewedAt   *time.Time
		reviewedBy   *uuid.UUID
		reason       *string
		reasonTypes  []string
	)
	if change.Review != nil {
		setRejection = true
		setReviewer = !change.Review.KeepReviewer
		at := change.Review.ReviewedAt
		reviewedAt = &at
		reviewedBy = change.Review.ReviewedBy
		reason = change.Review.RejectionReason
		reasonTypes = change.Review.RejectionReasonTypes
	}

	// jsonb || заменяет значение по ключу целиком: повторный переход в тот же статус
	// оставляет одну запись с последним changed_at, остальные ключи не трогаются.
	// Полная история переходов пишется отдельно в participant_status_events.
	query := `
		UPDATE weekly_contest_participants p SET
			admin_status = $2,
			week_interval = $3,
			status_history = COALESCE(p.status_history, '{}'::jsonb) || jsonb_build_object($4::text, $5::jsonb),
			reviewed_at = CASE WHEN $6 THEN $7 ELSE p.reviewed_at END,
			reviewed_by = CASE WHEN $6 THEN $8 ELSE p.reviewed_by END,
			rejection_reason = CASE WHEN $12 THEN $9 ELSE p.rejection_reason END,
			rejection_reason_types = CASE WHEN $12 THEN $10 ELSE p.rejection_reason_types END
		WHERE p.id = $1 AND p.deleted_at IS NULL AND p.admin_status = $11
		RETURNING` + participantColumns

	p := &models.Participant{}
	err = executor.QueryRowContext(ctx, query,
		change.ParticipantID,
		string(change.NewStatus),
		change.WeekInterval,
		string(change.NewStatus),
		string(entry),
		setReviewer,
		reviewedAt,
		reviewedBy,
		reason,
		pq.Array(reasonTypes),
		string(change.ExpectedStatus),
		setRejection,
	).Scan(participantScanDest(p)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantStatusStale
		}
		return nil, r.handleParticipantError(err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) InsertStatusEvent(ctx context.Context, exec SQLExecutor, event *models.StatusEvent) error {
	executor := r.getExecutor(exec)

	var from *string
	if event.FromStatus != nil {
		s := string(*event.FromStatus)
		from = &s
	}

	query := `
		INSERT INTO participant_status_events (participant_id, from_status, to_status, week_interval, changed_by, changed_by_email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		event.ParticipantID, from, string(event.ToStatus), event.WeekInterval, event.ChangedBy, event.ChangedByMail,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert status event: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) ListStatusEvents(ctx context.Context, participantID uuid.UUID) ([]models.StatusEvent, error) {
	query := `
		SELECT id, participant_id, from_status, to_status, week_interval, changed_by, COALESCE(changed_by_email, ''), created_at
		FROM participant_status_events
		WHERE participant_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status events: %w", err)
	}
	defer rows.Close()

	events := make([]models.StatusEvent, 0)
	for rows.Next() {
		var e models.StatusEvent
		if err := rows.Scan(&e.ID, &e.ParticipantID, &e.FromStatus, &e.ToStatus, &e.WeekInterval, &e.ChangedBy, &e.ChangedByMail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status events: %w", err)
	}
	return events, nil
}

func (r *postgresParticipantRepository) UpdateApplicationData(ctx context.Context, id uuid.UUID, data models.ApplicationData) error {
	query := `UPDATE weekly_contest_participants SET application_data = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, data, id)
	if err != nil {
		return fmt.Errorf("failed to update application data: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE weekly_contest_participants SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Restore(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE weekly_contest_participants SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotDeleted)
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == ActiveUserIndex {
				return ErrParticipantUserConflict
			}
		case "22P02": // invalid_text_representation (enum/uuid)
			return fmt.Errorf("invalid participant value: %w", err)
		}
	}
	return fmt.Errorf("participant query failed: %w", err)
}
