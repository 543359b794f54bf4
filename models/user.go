package models

import "github.com/google/uuid"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleUser      UserRole = "user"
)

// Actor — пользователь, выполняющий действие (из access token).
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}
