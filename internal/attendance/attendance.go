package attendance

import "time"

// VerificationStatus is the review state of an attendance record.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
	StatusFlagged  VerificationStatus = "flagged"
)

// Valid reports whether the status is one of the known values.
func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusFlagged:
		return true
	}
	return false
}

// Record is one student's attendance at one event. At most one record per
// (event, user) pair exists; the storage layer enforces it.
type Record struct {
	ID                 string             `json:"id"`
	EventID            string             `json:"event_id"`
	UserID             string             `json:"user_id"`
	CampusID           int64              `json:"campus_id"`
	CrossCampus        bool               `json:"cross_campus"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	LocationVerified   bool               `json:"location_verified"`
	DistanceM          float64            `json:"distance_m"`
	Latitude           float64            `json:"latitude"`
	Longitude          float64            `json:"longitude"`
	Accuracy           *float64           `json:"accuracy,omitempty"`
	FrontPhotoURL      string             `json:"front_photo_url,omitempty"`
	BackPhotoURL       string             `json:"back_photo_url,omitempty"`
	SignatureURL       string             `json:"signature_url,omitempty"`
	VerificationScore  *float64           `json:"verification_score,omitempty"`
	DeviceInfo         string             `json:"device_info,omitempty"`
	IP                 string             `json:"ip,omitempty"`
	UserAgent          string             `json:"user_agent,omitempty"`
	SubmittedAt        time.Time          `json:"submitted_at"`
	ReviewedBy         *string            `json:"reviewed_by,omitempty"`
	ReviewNotes        string             `json:"review_notes,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// AuditEntry is one row of the append-only attendance audit trail.
type AuditEntry struct {
	ID           int64     `json:"id"`
	AttendanceID string    `json:"attendance_id"`
	CampusID     int64     `json:"campus_id"`
	Action       string    `json:"action"`
	PerformedBy  *string   `json:"performed_by,omitempty"`
	Details      string    `json:"details,omitempty"`
	IP           string    `json:"ip,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
