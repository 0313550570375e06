package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

// UserRepo provides access to the local user profile rows.  Identities
// are created by the external authentication collaborator; this service
// only reads and edits the profile fields it owns.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID fetches a user by ID, returning ErrUserNotFound when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, email, full_name, role, version, created_at FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Version, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile edits the user's profile fields guarded by an optimistic
// version check.  A stale expected version returns UpdateVersionConflict
// with a nil error; callers branch on the result value.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID uint64, fullName, email string, expectedVersion uint64) (model.UpdateResult, error) {
	const upd = `UPDATE users SET full_name = ?, email = ?, version = version + 1 WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, upd, fullName, email, userID, expectedVersion)
	if err != nil {
		return model.UpdateVersionConflict, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.UpdateVersionConflict, err
	}
	if n == 1 {
		return model.UpdateOK, nil
	}
	const sel = `SELECT 1 FROM users WHERE id = ? LIMIT 1`
	var one int
	if err := r.db.QueryRowContext(ctx, sel, userID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UpdateVersionConflict, ErrUserNotFound
		}
		return model.UpdateVersionConflict, err
	}
	return model.UpdateVersionConflict, nil
}
