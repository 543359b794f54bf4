package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UserRoleRepository interface {
	HasAnyRole(ctx context.Context, userID uuid.UUID, roles ...models.UserRole) (bool, error)
	ListRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error)
}

type postgresUserRoleRepository struct {
	db *sql.DB
}

func NewPostgresUserRoleRepository(db *sql.DB) UserRoleRepository {
	return &postgresUserRoleRepository{db: db}
}

func (r *postgresUserRoleRepository) HasAnyRole(ctx context.Context, userID uuid.UUID, roles ...models.UserRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = ANY($2))`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, pq.Array(names)).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check roles for user %s: %w", userID, err)
	}
	return ok, nil
}

func (r *postgresUserRoleRepository) ListRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles for user %s: %w", userID, err)
	}
	defer rows.Close()

	roles := make([]models.UserRole, 0, 2)
	for rows.Next() {
		var role models.UserRole
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
