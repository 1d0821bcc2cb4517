package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// StaffRepo reads pre-provisioned staff accounts from the `users` table,
// always joined with `roles` so callers get the resolved role name. Staff
// accounts are created by operations tooling, not through the API, so this
// repository has no insert path.
type StaffRepo struct{ DB *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{DB: db} }

const staffQuery = `SELECT u.id, u.email, u.phone, u.password_hash, u.role_id, r.name, u.created_at, u.updated_at
FROM users u JOIN roles r ON r.id = u.role_id `

// GetByEmail fetches a staff user by normalized email.
func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (model.StaffUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, staffQuery+"WHERE u.email=? LIMIT 1", email)
}

// GetByPhone fetches a staff user by phone number.
func (r *StaffRepo) GetByPhone(ctx context.Context, phone string) (model.StaffUser, error) {
	return r.getOne(ctx, staffQuery+"WHERE u.phone=? LIMIT 1", strings.TrimSpace(phone))
}

// GetByID fetches a staff user by id.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (model.StaffUser, error) {
	return r.getOne(ctx, staffQuery+"WHERE u.id=? LIMIT 1", id)
}

func (r *StaffRepo) getOne(ctx context.Context, query string, arg interface{}) (model.StaffUser, error) {
	var u model.StaffUser
	var role string
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.RoleID, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StaffUser{}, ErrNotFound
	}
	u.Role = model.RoleName(role)
	return u, err
}
