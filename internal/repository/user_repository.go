package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/openverse/campus-api/internal/models"
)

// UserRepository provides database access for the user ledger. Accounts
// are created by the external identity provider; this repository only
// reads them and applies reward and profile updates.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `enrollment_id, mobile, branch, role, karma_points, xp, level, profile_pic, registration_date`

// FindByEnrollmentID returns a user by their enrollment identifier.
func (r *UserRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE enrollment_id = $1 LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by enrollment id: %w", err)
	}
	return &user, nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Branch != "" {
		conditions = append(conditions, fmt.Sprintf("branch = $%d", len(args)+1))
		args = append(args, filter.Branch)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY registration_date DESC LIMIT %d OFFSET %d", userColumns, baseQuery, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// UpdateCounters persists xp, level and karma after a ledger mutation.
func (r *UserRepository) UpdateCounters(ctx context.Context, user *models.User) error {
	const query = `UPDATE users SET xp = :xp, level = :level, karma_points = :karma_points WHERE enrollment_id = :enrollment_id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update user counters: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateProfile merges mutable profile fields into the user record.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	const query = `UPDATE users SET mobile = :mobile, profile_pic = :profile_pic WHERE enrollment_id = :enrollment_id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Leaderboard returns users ranked by karma, optionally scoped to a branch.
func (r *UserRepository) Leaderboard(ctx context.Context, branch string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM users", userColumns)
	var args []interface{}
	if branch != "" {
		query += " WHERE branch = $1"
		args = append(args, branch)
	}
	query += fmt.Sprintf(" ORDER BY karma_points DESC, xp DESC LIMIT %d", limit)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return users, nil
}
