// Package queue defines message payloads exchanged over the message broker
// and the background consumer for notification logging.
package queue

// Queue names for report lifecycle events.
const (
	ReportCreatedQueue       = "report.created"
	ReportStatusChangedQueue = "report.status_changed"
)

// ReportCreatedEvent is published when a citizen report is stored. It
// carries enough information for downstream consumers to notify area
// staff or feed analytics without querying the primary database.
type ReportCreatedEvent struct {
	ReportID  uint64  `json:"report_id"`
	Category  string  `json:"category"`
	Colonia   string  `json:"colonia,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	CreatedAt string  `json:"created_at"`
}

// ReportStatusChangedEvent is published when staff transition a report's
// status through the dashboard.
type ReportStatusChangedEvent struct {
	ReportID    uint64 `json:"report_id"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
	ChangedByID uint64 `json:"changed_by_id"`
	Comment     string `json:"comment,omitempty"`
	ChangedAt   string `json:"changed_at"`
}
