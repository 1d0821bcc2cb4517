package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// TokenRepo persists refresh tokens. Citizens and staff keep fully
// separate token tables (`citizen_refresh_tokens` and `refresh_tokens`);
// every call routes on the principal kind so the two uniqueness domains
// never collide. Only the opaque token value is stored — access tokens are
// never persisted.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func tokenTable(kind model.PrincipalKind) (table, ownerCol string) {
	if kind == model.KindCitizen {
		return "citizen_refresh_tokens", "citizen_id"
	}
	return "refresh_tokens", "user_id"
}

// Store inserts a refresh-token row for the given principal.
func (r *TokenRepo) Store(ctx context.Context, kind model.PrincipalKind, ownerID uint64, token string, exp time.Time) error {
	table, ownerCol := tokenTable(kind)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO "+table+" ("+ownerCol+", token, expires_at) VALUES (?,?,?)",
		ownerID, token, exp)
	return err
}

// Find returns the live row matching the opaque token value, scoped to the
// claimed owner. Expiry is not checked here; redemption decides what to do
// with a stale row.
func (r *TokenRepo) Find(ctx context.Context, kind model.PrincipalKind, token string, ownerID uint64) (model.RefreshToken, error) {
	table, ownerCol := tokenTable(kind)
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, "+ownerCol+", token, expires_at, created_at FROM "+table+" WHERE token=? AND "+ownerCol+"=? LIMIT 1",
		token, ownerID).Scan(&t.ID, &t.OwnerID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrNotFound
	}
	return t, err
}

// Consume deletes the row matching the opaque token value and owner.
// The single DELETE plus the RowsAffected check is what makes rotation
// race-safe: when two requests redeem the same token concurrently, exactly
// one delete reports an affected row and the other gets ErrNotFound.
func (r *TokenRepo) Consume(ctx context.Context, kind model.PrincipalKind, token string, ownerID uint64) error {
	table, ownerCol := tokenTable(kind)
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE token=? AND "+ownerCol+"=?", token, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID removes a single row by primary key. Used for best-effort
// cleanup of rows found expired during redemption.
func (r *TokenRepo) DeleteByID(ctx context.Context, kind model.PrincipalKind, id uint64) error {
	table, _ := tokenTable(kind)
	_, err := r.DB.ExecContext(ctx, "DELETE FROM "+table+" WHERE id=?", id)
	return err
}
