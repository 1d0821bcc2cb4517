package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// BusinessFilter narrows business listings. HasOffer is a tri-state: nil
// means no filter, true keeps businesses with at least one offer, false
// keeps those with none.
type BusinessFilter struct {
	Category string
	HasOffer *bool
	Limit    int
	Offset   int
}

// BusinessRepo reads the cached local-business catalog. Rows are written
// by the external places sync; this API only lists and resolves them.
type BusinessRepo struct{ DB *sql.DB }

func NewBusinessRepo(db *sql.DB) *BusinessRepo { return &BusinessRepo{DB: db} }

const businessSelect = `SELECT b.id, b.place_id, b.name, b.address, b.latitude, b.longitude, b.rating,
 b.category, b.photo_url, b.cached_at,
 (SELECT COUNT(*) FROM offers o WHERE o.business_id=b.id) AS offer_count
 FROM businesses b`

// List returns businesses matching the filter ordered by name, with the
// total match count for pagination meta.
func (r *BusinessRepo) List(ctx context.Context, f BusinessFilter) ([]model.Business, int, error) {
	var conds []string
	var args []interface{}
	if f.Category != "" {
		conds = append(conds, "b.category=?")
		args = append(args, f.Category)
	}
	if f.HasOffer != nil {
		op := "EXISTS"
		if !*f.HasOffer {
			op = "NOT EXISTS"
		}
		conds = append(conds, op+" (SELECT 1 FROM offers o WHERE o.business_id=b.id)")
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
		businessSelect+where+" ORDER BY b.name ASC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Business, 0, limit)
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.PlaceID, &b.Name, &b.Address, &b.Latitude, &b.Longitude,
			&b.Rating, &b.Category, &b.PhotoURL, &b.CachedAt, &b.OfferCount); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM businesses b"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Categories returns the distinct non-null business categories, sorted.
func (r *BusinessRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT category FROM businesses WHERE category IS NOT NULL ORDER BY category ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches a single business with its offer count.
func (r *BusinessRepo) GetByID(ctx context.Context, id uint64) (model.Business, error) {
	var b model.Business
	err := r.DB.QueryRowContext(ctx, businessSelect+" WHERE b.id=? LIMIT 1", id).
		Scan(&b.ID, &b.PlaceID, &b.Name, &b.Address, &b.Latitude, &b.Longitude,
			&b.Rating, &b.Category, &b.PhotoURL, &b.CachedAt, &b.OfferCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Business{}, ErrNotFound
	}
	return b, err
}
