package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// OfferFilter narrows offer listings.
type OfferFilter struct {
	BusinessID uint64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// OfferBusiness is the business echo attached to offer listings.
type OfferBusiness struct {
	ID        uint64   `json:"id"`
	Name      string   `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// OfferRow bundles an offer with its business echo.
type OfferRow struct {
	model.Offer
	Business OfferBusiness
}

// OfferRepo manages time-bound offers attached to cached businesses.
type OfferRepo struct{ DB *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{DB: db} }

const offerSelect = `SELECT o.id, o.business_id, o.title, o.description, o.image_url,
 o.valid_from, o.valid_until, o.conditions, o.created_at,
 b.id, b.name, b.address, b.latitude, b.longitude
 FROM offers o JOIN businesses b ON b.id = o.business_id`

// List returns offers matching the filter, soonest-expiring first, with
// the total match count.
func (r *OfferRepo) List(ctx context.Context, f OfferFilter) ([]OfferRow, int, error) {
	var conds []string
	var args []interface{}
	if f.BusinessID != 0 {
		conds = append(conds, "o.business_id=?")
		args = append(args, f.BusinessID)
	}
	if f.ActiveOnly {
		conds = append(conds, "o.valid_until >= ?")
		args = append(args, time.Now().UTC())
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx,
		offerSelect+where+" ORDER BY o.valid_until ASC, o.created_at DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]OfferRow, 0, limit)
	for rows.Next() {
		o, err := scanOfferRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM offers o"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches a single offer with its business echo.
func (r *OfferRepo) GetByID(ctx context.Context, id uint64) (OfferRow, error) {
	o, err := scanOfferRow(r.DB.QueryRowContext(ctx, offerSelect+" WHERE o.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return OfferRow{}, ErrNotFound
	}
	return o, err
}

// Create inserts an offer for an existing business and returns the stored
// row. A missing business surfaces as ErrNotFound via the FK violation
// (MySQL error 1452).
func (r *OfferRepo) Create(ctx context.Context, businessID uint64, title string, description, imageURL *string, validFrom, validUntil time.Time, conditions *string) (OfferRow, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO offers (business_id, title, description, image_url, valid_from, valid_until, conditions)
		 VALUES (?,?,?,?,?,?,?)`,
		businessID, title, description, imageURL, validFrom, validUntil, conditions)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1452") {
			return OfferRow{}, ErrNotFound
		}
		return OfferRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return OfferRow{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// OfferPatch carries the optional fields of an offer update; nil fields
// are left unchanged.
type OfferPatch struct {
	Title       *string
	Description *string
	ImageURL    *string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	Conditions  *string
}

// Update applies a partial update and returns the stored row.
func (r *OfferRepo) Update(ctx context.Context, id uint64, p OfferPatch) (OfferRow, error) {
	var sets []string
	var args []interface{}
	if p.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *p.Description)
	}
	if p.ImageURL != nil {
		sets = append(sets, "image_url=?")
		args = append(args, *p.ImageURL)
	}
	if p.ValidFrom != nil {
		sets = append(sets, "valid_from=?")
		args = append(args, *p.ValidFrom)
	}
	if p.ValidUntil != nil {
		sets = append(sets, "valid_until=?")
		args = append(args, *p.ValidUntil)
	}
	if p.Conditions != nil {
		sets = append(sets, "conditions=?")
		args = append(args, *p.Conditions)
	}
	if len(sets) > 0 {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE offers SET "+strings.Join(sets, ", ")+" WHERE id=?", append(args, id)...); err != nil {
			return OfferRow{}, err
		}
	}
	// The read below reports ErrNotFound for a missing offer.
	return r.GetByID(ctx, id)
}

// Delete removes an offer. ErrNotFound when no row matched.
func (r *OfferRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM offers WHERE id=?", id)
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

func scanOfferRow(s rowScanner) (OfferRow, error) {
	var o OfferRow
	err := s.Scan(&o.ID, &o.BusinessID, &o.Title, &o.Description, &o.ImageURL,
		&o.ValidFrom, &o.ValidUntil, &o.Conditions, &o.CreatedAt,
		&o.Business.ID, &o.Business.Name, &o.Business.Address, &o.Business.Latitude, &o.Business.Longitude)
	return o, err
}
