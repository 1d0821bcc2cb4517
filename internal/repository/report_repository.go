package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/alcaldia-digital/reportes-api/internal/model"
)

// ReportAuthor is the principal echo attached to report listings. Either a
// citizen or a staff user; citizen authors additionally carry their names.
type ReportAuthor struct {
	ID        uint64  `json:"id"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Colonia   *string `json:"colonia,omitempty"`
	Nombre    *string `json:"nombre,omitempty"`
	Apellidos *string `json:"apellidos,omitempty"`
}

// ReportRow bundles a report with its resolved author, when any.
type ReportRow struct {
	model.Report
	Author *ReportAuthor
}

// ReportFilter narrows report listings. Zero values mean "no filter".
// OrderBy is either "createdAt" (default) or "voteCount"; Order is "asc" or
// "desc" (default).
type ReportFilter struct {
	Status   model.ReportStatus
	Category string
	Colonia  string
	Since    time.Time
	Limit    int
	Offset   int
	OrderBy  string
	Order    string
}

// ReportStats aggregates the dashboard counters.
type ReportStats struct {
	ByStatus   map[string]int   `json:"byStatus"`
	ByCategory map[string]int   `json:"byCategory"`
	ByColonia  map[string]int   `json:"byColonia"`
	TopVoted   []TopVotedReport `json:"topVoted"`
	Total      int              `json:"total"`
}

// TopVotedReport is a trimmed report row for the stats panel.
type TopVotedReport struct {
	ID          uint64             `json:"id"`
	Category    string             `json:"category"`
	Description string             `json:"description"`
	Status      model.ReportStatus `json:"status"`
	VoteCount   int                `json:"voteCount"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// ReportRepo persists citizen reports, their votes and their status
// history. Vote counts are aggregated across the two vote tables (citizen
// votes and staff votes) in every query that returns reports.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

const voteCountExpr = `((SELECT COUNT(*) FROM report_votes v WHERE v.report_id=r.id) +
 (SELECT COUNT(*) FROM citizen_report_votes cv WHERE cv.report_id=r.id))`

const reportSelect = `SELECT r.id, r.citizen_id, r.user_id, r.category, r.description, r.photo_url,
 r.latitude, r.longitude, r.colonia, r.status, r.created_at, r.updated_at, ` + voteCountExpr + ` AS vote_count,
 c.id, c.email, c.phone, c.colonia, c.nombre, c.apellidos,
 u.id, u.email, u.phone
 FROM reports r
 LEFT JOIN citizens c ON c.id = r.citizen_id
 LEFT JOIN users u ON u.id = r.user_id`

// Create inserts a PENDING report authored by the given principal and
// returns the stored row.
func (r *ReportRepo) Create(ctx context.Context, kind model.PrincipalKind, authorID uint64, category, description, photoURL string, lat, lng float64, colonia *string) (ReportRow, error) {
	var citizenID, userID interface{}
	if kind == model.KindCitizen {
		citizenID = authorID
	} else {
		userID = authorID
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reports (citizen_id, user_id, category, description, photo_url, latitude, longitude, colonia, status)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		citizenID, userID, category, description, photoURL, lat, lng, colonia, string(model.StatusPending))
	if err != nil {
		return ReportRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ReportRow{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single report with author echo and vote count.
func (r *ReportRepo) GetByID(ctx context.Context, id uint64) (ReportRow, error) {
	row := r.DB.QueryRowContext(ctx, reportSelect+" WHERE r.id=? LIMIT 1", id)
	rep, err := scanReportRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ReportRow{}, ErrNotFound
	}
	return rep, err
}

// List returns reports matching the filter, newest first unless the filter
// orders by vote count, plus the total match count for pagination meta.
func (r *ReportRepo) List(ctx context.Context, f ReportFilter) ([]ReportRow, int, error) {
	where, args := reportWhere(f)

	orderCol := "r.created_at"
	if f.OrderBy == "voteCount" {
		orderCol = "vote_count"
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := reportSelect + where + " ORDER BY " + orderCol + " " + dir + " LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]ReportRow, 0, limit)
	for rows.Next() {
		rep, err := scanReportRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports r"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Vote records one supporting vote by the given principal. A second vote by
// the same principal violates the per-table (report, principal) unique key
// and is surfaced as ErrDuplicateVote.
func (r *ReportRepo) Vote(ctx context.Context, reportID uint64, kind model.PrincipalKind, principalID uint64) error {
	var err error
	if kind == model.KindCitizen {
		_, err = r.DB.ExecContext(ctx,
			"INSERT INTO citizen_report_votes (report_id, citizen_id) VALUES (?,?)", reportID, principalID)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"INSERT INTO report_votes (report_id, user_id) VALUES (?,?)", reportID, principalID)
	}
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrDuplicateVote
	}
	return err
}

// VoteCount returns the aggregated vote total for one report.
func (r *ReportRepo) VoteCount(ctx context.Context, reportID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM report_votes WHERE report_id=?) +
		        (SELECT COUNT(*) FROM citizen_report_votes WHERE report_id=?)`,
		reportID, reportID).Scan(&n)
	return n, err
}

// UpdateStatus transitions a report and records the transition in the
// status history inside one transaction, so the history never disagrees
// with the report row.
func (r *ReportRepo) UpdateStatus(ctx context.Context, reportID uint64, from, to model.ReportStatus, changedByID uint64, comment *string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE reports SET status=?, updated_at=NOW() WHERE id=?", string(to), reportID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO report_status_history (report_id, from_status, to_status, changed_by_id, comment)
		 VALUES (?,?,?,?,?)`,
		reportID, string(from), string(to), changedByID, comment); err != nil {
		return err
	}
	return tx.Commit()
}

// HistoryEntry is one status transition with the staff user who made it.
type HistoryEntry struct {
	ID         uint64             `json:"id"`
	FromStatus model.ReportStatus `json:"fromStatus"`
	ToStatus   model.ReportStatus `json:"toStatus"`
	Comment    *string            `json:"comment"`
	CreatedAt  time.Time          `json:"createdAt"`
	ChangedBy  ReportAuthor       `json:"changedBy"`
}

// History lists a report's status transitions, newest first.
func (r *ReportRepo) History(ctx context.Context, reportID uint64) ([]HistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT h.id, h.from_status, h.to_status, h.comment, h.created_at, u.id, u.email
		 FROM report_status_history h JOIN users u ON u.id = h.changed_by_id
		 WHERE h.report_id=? ORDER BY h.created_at DESC`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var from, to string
		if err := rows.Scan(&e.ID, &from, &to, &e.Comment, &e.CreatedAt, &e.ChangedBy.ID, &e.ChangedBy.Email); err != nil {
			return nil, err
		}
		e.FromStatus = model.ReportStatus(from)
		e.ToStatus = model.ReportStatus(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats aggregates report counters for the dashboard.
func (r *ReportRepo) Stats(ctx context.Context) (ReportStats, error) {
	stats := ReportStats{
		ByStatus:   map[string]int{},
		ByCategory: map[string]int{},
		ByColonia:  map[string]int{},
	}

	if err := groupCount(ctx, r.DB, "SELECT status, COUNT(*) FROM reports GROUP BY status", stats.ByStatus, ""); err != nil {
		return ReportStats{}, err
	}
	if err := groupCount(ctx, r.DB, "SELECT category, COUNT(*) FROM reports GROUP BY category", stats.ByCategory, ""); err != nil {
		return ReportStats{}, err
	}
	if err := groupCount(ctx, r.DB, "SELECT colonia, COUNT(*) FROM reports GROUP BY colonia", stats.ByColonia, "Sin colonia"); err != nil {
		return ReportStats{}, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.category, LEFT(r.description, 80), r.status, r.created_at, `+voteCountExpr+` AS vote_count
		 FROM reports r ORDER BY vote_count DESC LIMIT 10`)
	if err != nil {
		return ReportStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var t TopVotedReport
		var status string
		if err := rows.Scan(&t.ID, &t.Category, &t.Description, &status, &t.CreatedAt, &t.VoteCount); err != nil {
			return ReportStats{}, err
		}
		t.Status = model.ReportStatus(status)
		stats.TopVoted = append(stats.TopVoted, t)
	}
	if err := rows.Err(); err != nil {
		return ReportStats{}, err
	}

	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&stats.Total); err != nil {
		return ReportStats{}, err
	}
	return stats, nil
}

// groupCount fills dst with key->count rows, substituting nullKey for NULL
// group keys.
func groupCount(ctx context.Context, db *sql.DB, query string, dst map[string]int, nullKey string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key sql.NullString
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		k := nullKey
		if key.Valid {
			k = key.String
		}
		dst[k] = n
	}
	return rows.Err()
}

func reportWhere(f ReportFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.Status != "" {
		conds = append(conds, "r.status=?")
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		conds = append(conds, "r.category=?")
		args = append(args, f.Category)
	}
	if f.Colonia != "" {
		conds = append(conds, "r.colonia=?")
		args = append(args, f.Colonia)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "r.created_at >= ?")
		args = append(args, f.Since)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanReportRow(s rowScanner) (ReportRow, error) {
	var rep ReportRow
	var status string
	var cID, uID sql.NullInt64
	var cEmail, cPhone, cColonia, cNombre, cApellidos sql.NullString
	var uEmail, uPhone sql.NullString
	err := s.Scan(
		&rep.ID, &rep.CitizenID, &rep.UserID, &rep.Category, &rep.Description, &rep.PhotoURL,
		&rep.Latitude, &rep.Longitude, &rep.Colonia, &status, &rep.CreatedAt, &rep.UpdatedAt, &rep.VoteCount,
		&cID, &cEmail, &cPhone, &cColonia, &cNombre, &cApellidos,
		&uID, &uEmail, &uPhone)
	if err != nil {
		return ReportRow{}, err
	}
	rep.Status = model.ReportStatus(status)
	if cID.Valid {
		rep.Author = &ReportAuthor{
			ID:        uint64(cID.Int64),
			Email:     nullStr(cEmail),
			Phone:     nullStr(cPhone),
			Colonia:   nullStr(cColonia),
			Nombre:    nullStr(cNombre),
			Apellidos: nullStr(cApellidos),
		}
	} else if uID.Valid {
		rep.Author = &ReportAuthor{
			ID:    uint64(uID.Int64),
			Email: nullStr(uEmail),
			Phone: nullStr(uPhone),
		}
	}
	return rep, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
