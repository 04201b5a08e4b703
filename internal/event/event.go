package event

import "time"

// Status describes the lifecycle stage of an event.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Event is a scheduled gathering that accepts QR attendance.
type Event struct {
	ID               string    `json:"id"`
	CampusID         int64     `json:"campus_id"`
	OrganizerID      string    `json:"organizer_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	EventType        string    `json:"event_type"`
	Venue            string    `json:"venue"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	RadiusM          float64   `json:"radius_m"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	GraceMinutes     int       `json:"grace_minutes"`
	EarlyOpenMinutes int       `json:"early_open_minutes"`
	RequireSelfie    bool      `json:"require_selfie"`
	RequireSignature bool      `json:"require_signature"`
	Status           Status    `json:"status"`
	IsActive         bool      `json:"is_active"`
	CurrentTokenID   *string   `json:"current_token_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SubmissionOpens is the earliest instant attendance is accepted.
func (e Event) SubmissionOpens() time.Time {
	return e.StartsAt.Add(-time.Duration(e.EarlyOpenMinutes) * time.Minute)
}

// SubmissionCloses is the latest instant attendance is accepted. QR tokens
// expire at the same instant.
func (e Event) SubmissionCloses() time.Time {
	return e.EndsAt.Add(time.Duration(e.GraceMinutes) * time.Minute)
}

// SubmissionOpen reports whether attendance is accepted at the given time.
func (e Event) SubmissionOpen(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	return !now.Before(e.SubmissionOpens()) && !now.After(e.SubmissionCloses())
}
