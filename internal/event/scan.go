package event

import "time"

// ScanOutcome classifies a QR resolution attempt.
type ScanOutcome string

const (
	ScanOK            ScanOutcome = "ok"
	ScanNotFound      ScanOutcome = "not_found"
	ScanRevoked       ScanOutcome = "revoked"
	ScanExpired       ScanOutcome = "expired"
	ScanEventInactive ScanOutcome = "event_inactive"
)

// Scan is one row of the append-only QR scan log. Rows are written for
// every resolution attempt, successful or not, and are never updated.
type Scan struct {
	ID        int64       `json:"id"`
	Token     string      `json:"token"`
	EventID   *string     `json:"event_id,omitempty"`
	UserID    *string     `json:"user_id,omitempty"`
	Outcome   ScanOutcome `json:"outcome"`
	IP        string      `json:"ip,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Accuracy  *float64    `json:"accuracy,omitempty"`
	ScannedAt time.Time   `json:"scanned_at"`
}
