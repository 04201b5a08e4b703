package user

import (
	"time"

	"eas/internal/campus"
)

// User is an account on one campus. Students submit attendance; organizers
// run events; admins review and read across their accessible campuses.
type User struct {
	ID                  string      `json:"id"`
	CampusID            int64       `json:"campus_id"`
	Role                campus.Role `json:"role"`
	StudentNo           string      `json:"student_no,omitempty"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	PasswordHash        string      `json:"-"`
	IsVerified          bool        `json:"is_verified"`
	AccessibleCampusIDs []int64     `json:"accessible_campus_ids,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// Scope returns the campus scope this user operates under.
func (u User) Scope() campus.Scope {
	return campus.Scope{
		UserID:              u.ID,
		Role:                u.Role,
		CampusID:            u.CampusID,
		AccessibleCampusIDs: u.AccessibleCampusIDs,
	}
}
