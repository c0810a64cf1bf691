package eventbus

import "time"

// ReportGeneratedData is emitted once a report file has been archived.
type ReportGeneratedData struct {
	Kind        string    `json:"kind"`
	Format      string    `json:"format"`
	Filename    string    `json:"filename"`
	Location    string    `json:"location"`
	Period      string    `json:"period"`
	SizeBytes   int       `json:"size_bytes"`
	Pages       int       `json:"pages,omitempty"`
	GeneratedBy string    `json:"generated_by,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AlertsSummaryData is emitted when the unread alert summary changes.
type AlertsSummaryData struct {
	Unread   int       `json:"unread"`
	Total    int       `json:"total"`
	LatestID string    `json:"latest_id,omitempty"`
	At       time.Time `json:"at"`
}

// AlertReadData is emitted when an operator acknowledges an alert.
type AlertReadData struct {
	AlertID string    `json:"alert_id"`
	UserID  string    `json:"user_id,omitempty"`
	ReadAt  time.Time `json:"read_at"`
}

// RecordsChangedData is emitted after a write passthrough to the fleet backend.
type RecordsChangedData struct {
	Collection string    `json:"collection"`
	RecordID   string    `json:"record_id,omitempty"`
	Action     string    `json:"action"` // created | updated | completed
	At         time.Time `json:"at"`
}
