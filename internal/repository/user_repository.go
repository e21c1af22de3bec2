package repository

import (
	"context"
	"database/sql"

	"github.com/fieldsync/server/internal/models"
)

// UserRepository implements UserRepo for PostgreSQL/SQLite
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tenant_id, email, display_name, role, api_key, created_at, is_active`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.DisplayName,
		&user.Role, &user.APIKey, &user.CreatedAt, &user.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKey resolves a user from an API key, active users only
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE api_key = $1 AND is_active = TRUE`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, apiKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AdminsForTenant returns active admin users in the tenant
func (r *UserRepository) AdminsForTenant(ctx context.Context, tenantID string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
			  WHERE tenant_id = $1 AND role = $2 AND is_active = TRUE`

	rows, err := r.db.QueryContext(ctx, query, tenantID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UserIDsWithDeviceAccess returns ids of users granted visibility of the device
func (r *UserRepository) UserIDsWithDeviceAccess(ctx context.Context, deviceID string) ([]string, error) {
	query := `SELECT user_id FROM user_device_access WHERE device_id = $1`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
