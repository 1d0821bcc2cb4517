package model

import "time"

// ReportStatus is the lifecycle state of a citizen report as triaged by
// municipal staff.
type ReportStatus string

const (
	StatusPending    ReportStatus = "PENDING"
	StatusChanneled  ReportStatus = "CHANNELED"
	StatusInProgress ReportStatus = "IN_PROGRESS"
	StatusResolved   ReportStatus = "RESOLVED"
)

// Valid reports whether s is one of the known report statuses.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusChanneled, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ReportCategory pairs a stable category id with its display label. The
// list is fixed; a future phase may move it to a seeded table.
type ReportCategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ReportCategories is the fixed list of incident categories citizens can
// report.
var ReportCategories = []ReportCategory{
	{ID: "alumbrado", Label: "Alumbrado público"},
	{ID: "bache", Label: "Baches"},
	{ID: "limpieza", Label: "Limpieza y recolección"},
	{ID: "seguridad", Label: "Seguridad"},
	{ID: "espacios_publicos", Label: "Espacios públicos"},
	{ID: "arbolado", Label: "Arbolado y áreas verdes"},
	{ID: "drenaje", Label: "Drenaje"},
	{ID: "otro", Label: "Otro"},
}

// ValidReportCategory reports whether id names a known category.
func ValidReportCategory(id string) bool {
	for _, c := range ReportCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Report is a geolocated incident report as stored in the `reports` table.
// A report is authored by exactly one principal: CitizenID is set for
// citizen reports, UserID for reports filed by staff. The colonia is an
// external input resolved by the client's geofencing; the API stores it
// verbatim.
type Report struct {
	ID          uint64       // reports.id
	CitizenID   *uint64      // reports.citizen_id (nullable)
	UserID      *uint64      // reports.user_id (nullable)
	Category    string       // reports.category
	Description string       // reports.description
	PhotoURL    string       // reports.photo_url
	Latitude    float64      // reports.latitude
	Longitude   float64      // reports.longitude
	Colonia     *string      // reports.colonia (nullable)
	Status      ReportStatus // reports.status
	VoteCount   int          // aggregated votes across both vote tables
	CreatedAt   time.Time    // reports.created_at
	UpdatedAt   time.Time    // reports.updated_at
}

// ReportStatusHistory records one staff-driven status transition in the
// `report_status_history` table.
type ReportStatusHistory struct {
	ID          uint64       // report_status_history.id
	ReportID    uint64       // report_status_history.report_id
	FromStatus  ReportStatus // report_status_history.from_status
	ToStatus    ReportStatus // report_status_history.to_status
	ChangedByID uint64       // report_status_history.changed_by_id (staff user)
	Comment     *string      // report_status_history.comment (nullable)
	CreatedAt   time.Time    // report_status_history.created_at
}
