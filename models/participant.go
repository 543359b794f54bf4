package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminStatus — положение участника в недельном цикле конкурса.
// Значения хранятся в БД как есть (с пробелами).
type AdminStatus string

const (
	StatusPending     AdminStatus = "pending"
	StatusRejected    AdminStatus = "rejected"
	StatusPreNextWeek AdminStatus = "pre next week"
	StatusNextWeek    AdminStatus = "next week"
	StatusThisWeek    AdminStatus = "this week"
	StatusPast        AdminStatus = "past"
)

// AllAdminStatuses lists statuses in lifecycle order.
var AllAdminStatuses = []AdminStatus{
	StatusPending,
	StatusPreNextWeek,
	StatusNextWeek,
	StatusThisWeek,
	StatusPast,
	StatusRejected,
}

func (s AdminStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRejected, StatusPreNextWeek, StatusNextWeek, StatusThisWeek, StatusPast:
		return true
	}
	return false
}

func (s AdminStatus) String() string { return string(s) }

// Participant — строка таблицы weekly_contest_participants.
type Participant struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	ContestID *uuid.UUID `json:"contest_id,omitempty" db:"contest_id"`

	AdminStatus   AdminStatus   `json:"admin_status" db:"admin_status"`
	WeekInterval  string        `json:"week_interval" db:"week_interval"`
	StatusHistory StatusHistory `json:"status_history" db:"status_history"`

	ApplicationData ApplicationData `json:"application_data" db:"application_data"`

	// Aggregates maintained by the database, never computed here.
	FinalRank     *int     `json:"final_rank,omitempty" db:"final_rank"`
	AverageRating *float64 `json:"average_rating,omitempty" db:"average_rating"`
	TotalVotes    *int     `json:"total_votes,omitempty" db:"total_votes"`

	DeletedAt            *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy           *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	RejectionReason      *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RejectionReasonTypes []string   `json:"rejection_reason_types,omitempty" db:"rejection_reason_types"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

func (p *Participant) IsDeleted() bool {
	return p != nil && p.DeletedAt != nil
}

// DisplayName is used in logs and realtime events.
func (p *Participant) DisplayName() string {
	if p == nil {
		return "N/A"
	}
	name := p.ApplicationData.FullName()
	if name != "" {
		return name
	}
	return "Participant " + p.ID.String()
}

// StatusEvent — строка журнала participant_status_events (полный аудит переходов).
type StatusEvent struct {
	ID            int64        `json:"id" db:"id"`
	ParticipantID uuid.UUID    `json:"participant_id" db:"participant_id"`
	FromStatus    *AdminStatus `json:"from_status,omitempty" db:"from_status"`
	ToStatus      AdminStatus  `json:"to_status" db:"to_status"`
	WeekInterval  string       `json:"week_interval" db:"week_interval"`
	ChangedBy     *uuid.UUID   `json:"changed_by,omitempty" db:"changed_by"`
	ChangedByMail string       `json:"changed_by_email" db:"changed_by_email"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
