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

// Функции БД, которые сервис вызывает. Их реализация живёт в базе и сюда не входит.
const (
	RPCWeeklyParticipantsAdmin   = "get_weekly_contest_participants_admin"
	RPCCurrentMondayUTC          = "get_current_monday_utc"
	RPCTransitionWeeklyContest   = "transition_weekly_contest"
	RPCDailyVotingStats          = "get_daily_voting_stats"
	RPCDailyApplicationStats     = "get_daily_application_stats"
	RPCDailyRegistrationStats    = "get_daily_registration_stats"
	RPCCardSectionStats          = "get_card_section_stats"
	RPCNextWeekApplicationsCount = "get_next_week_applications_count"
	RPCPublicRatingStats         = "get_public_participant_rating_stats"
	RPCPublicParticipantPhotos   = "get_public_contest_participant_photos"
	RPCUserAuthDataPaginated     = "get_user_auth_data_admin_paginated"
	RPCEmailDomainStats          = "get_email_domain_stats"
	RPCEmailDomainVotingStats    = "get_email_domain_voting_stats"
)

var knownRPCs = map[string]bool{
	RPCWeeklyParticipantsAdmin: true, RPCCurrentMondayUTC: true, RPCTransitionWeeklyContest: true,
	RPCDailyVotingStats: true, RPCDailyApplicationStats: true, RPCDailyRegistrationStats: true,
	RPCCardSectionStats: true, RPCNextWeekApplicationsCount: true, RPCPublicRatingStats: true,
	RPCPublicParticipantPhotos: true, RPCUserAuthDataPaginated: true, RPCEmailDomainStats: true,
	RPCEmailDomainVotingStats: true,
}

var ErrUnknownRPC = errors.New("unknown database function")

// RPCArg is a named argument passed with PostgreSQL named notation.
type RPCArg struct {
	Name  string
	Value interface{}
}

type RPCRepository interface {
	Call(ctx context.Context, fn string, args ...RPCArg) (models.RPCRows, error)
	WeeklyParticipantsAdmin(ctx context.Context, weeksOffset int) ([]*models.Participant, error)
	CurrentMondayUTC(ctx context.Context) (time.Time, error)
	TransitionWeeklyContest(ctx context.Context, targetWeekStart time.Time, dryRun bool) (json.RawMessage, error)
	NextWeekApplicationsCount(ctx context.Context) (int, error)
	PublicRatingStats(ctx context.Context, participantID uuid.UUID) (models.RPCRows, error)
	PublicParticipantPhotos(ctx context.Context, userIDs []uuid.UUID) (models.RPCRows, error)
}

type postgresRPCRepository struct {
	db *sql.DB
}

func NewPostgresRPCRepository(db *sql.DB) RPCRepository {
	return &postgresRPCRepository{db: db}
}

// Call runs a database function and returns each result row as a JSON object.
// Scalar functions come back as a single row holding the bare value.
func (r *postgresRPCRepository) Call(ctx context.Context, fn string, args ...RPCArg) (models.RPCRows, error) {
	if !knownRPCs[fn] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRPC, fn)
	}

	params := make([]string, len(args))
	values := make([]interface{}, len(args))
	for i, a := range args {
		params[i] = fmt.Sprintf("%s => $%d", a.Name, i+1)
		values[i] = a.Value
	}
	query := fmt.Sprintf(`SELECT to_jsonb(t) FROM %s(%s) AS t`, fn, strings.Join(params, ", "))

	rows, err := r.db.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("rpc %s failed: %w", fn, err)
	}
	defer rows.Close()

	out := make(models.RPCRows, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("rpc %s: failed to scan row: %w", fn, err)
		}
		out = append(out, unwrapScalarRow(fn, raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rpc %s: error iterating rows: %w", fn, err)
	}
	return out, nil
}

// unwrapScalarRow turns {"fn": value} into value.
func unwrapScalarRow(fn string, raw []byte) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil && len(obj) == 1 {
		if v, ok := obj[fn]; ok {
			return v
		}
	}
	return json.RawMessage(raw)
}

func (r *postgresRPCRepository) WeeklyParticipantsAdmin(ctx context.Context, weeksOffset int) ([]*models.Participant, error) {
	rows, err := r.Call(ctx, RPCWeeklyParticipantsAdmin, RPCArg{Name: "weeks_offset", Value: weeksOffset})
	if err != nil {
		return nil, err
	}
	participants := make([]*models.Participant, 0, len(rows))
	for _, row := range rows {
		p := &models.Participant{}
		if err := json.Unmarshal(row, p); err != nil {
			return nil, fmt.Errorf("rpc %s: failed to decode participant: %w", RPCWeeklyParticipantsAdmin, err)
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (r *postgresRPCRepository) CurrentMondayUTC(ctx context.Context) (time.Time, error) {
	var monday time.Time
	err := r.db.QueryRowContext(ctx, `SELECT `+RPCCurrentMondayUTC+`()`).Scan(&monday)
	if err != nil {
		return time.Time{}, fmt.Errorf("rpc %s failed: %w", RPCCurrentMondayUTC, err)
	}
	return monday.UTC(), nil
}

func (r *postgresRPCRepository) TransitionWeeklyContest(ctx context.Context, targetWeekStart time.Time, dryRun bool) (json.RawMessage, error) {
	rows, err := r.Call(ctx, RPCTransitionWeeklyContest,
		RPCArg{Name: "target_week_start", Value: targetWeekStart.UTC().Format("2006-01-02")},
		RPCArg{Name: "dry_run", Value: dryRun},
	)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return json.RawMessage("null"), nil
	case 1:
		return rows[0], nil
	}
	return json.Marshal(rows)
}

func (r *postgresRPCRepository) NextWeekApplicationsCount(ctx context.Context) (int, error) {
	rows, err := r.Call(ctx, RPCNextWeekApplicationsCount)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(rows[0], &n); err != nil {
		return 0, fmt.Errorf("rpc %s: unexpected result %s: %w", RPCNextWeekApplicationsCount, rows[0], err)
	}
	return n, nil
}

func (r *postgresRPCRepository) PublicRatingStats(ctx context.Context, participantID uuid.UUID) (models.RPCRows, error) {
	return r.Call(ctx, RPCPublicRatingStats, RPCArg{Name: "target_participant_id", Value: participantID})
}

func (r *postgresRPCRepository) PublicParticipantPhotos(ctx context.Context, userIDs []uuid.UUID) (models.RPCRows, error) {
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}
	return r.Call(ctx, RPCPublicParticipantPhotos, RPCArg{Name: "participant_user_ids", Value: pq.Array(ids)})
}
