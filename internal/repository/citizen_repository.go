package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// CitizenRepo persists citizen accounts in the `citizens` table.
type CitizenRepo struct{ DB *sql.DB }

func NewCitizenRepo(db *sql.DB) *CitizenRepo { return &CitizenRepo{DB: db} }

const citizenColumns = "id, email, phone, password_hash, nombre, apellidos, colonia, created_at, updated_at"

// Create inserts a citizen row and returns its ID. Duplicate email or
// phone map to the dedicated sentinel errors so the caller can surface a
// duplicate-identity failure without inspecting driver internals. MySQL
// reports unique-key violations as error 1062 with the index name in the
// message.
func (r *CitizenRepo) Create(ctx context.Context, email, phone, passwordHash, nombre, apellidos string, colonia *string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO citizens (email, phone, password_hash, nombre, apellidos, colonia) VALUES (?,?,?,?,?,?)",
		email, phone, passwordHash, strings.TrimSpace(nombre), strings.TrimSpace(apellidos), colonia)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "phone") {
				return 0, ErrPhoneExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a citizen by normalized email.
func (r *CitizenRepo) GetByEmail(ctx context.Context, email string) (model.Citizen, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+citizenColumns+" FROM citizens WHERE email=? LIMIT 1", email)
}

// GetByPhone fetches a citizen by phone number.
func (r *CitizenRepo) GetByPhone(ctx context.Context, phone string) (model.Citizen, error) {
	return r.getOne(ctx, "SELECT "+citizenColumns+" FROM citizens WHERE phone=? LIMIT 1", strings.TrimSpace(phone))
}

// GetByID fetches a citizen by id.
func (r *CitizenRepo) GetByID(ctx context.Context, id uint64) (model.Citizen, error) {
	return r.getOne(ctx, "SELECT "+citizenColumns+" FROM citizens WHERE id=? LIMIT 1", id)
}

func (r *CitizenRepo) getOne(ctx context.Context, query string, arg interface{}) (model.Citizen, error) {
	var c model.Citizen
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Email, &c.Phone, &c.PasswordHash, &c.Nombre, &c.Apellidos, &c.Colonia, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Citizen{}, ErrNotFound
	}
	return c, err
}
