package campus

import "time"

// Role classifies what a user may do and how far their campus scope reaches.
type Role string

const (
	RoleStudent     Role = "student"
	RoleOrganizer   Role = "organizer"
	RoleCampusAdmin Role = "campus_admin"
	RoleSuperAdmin  Role = "super_admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleOrganizer, RoleCampusAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role may reach beyond its home campus.
func (r Role) Elevated() bool {
	return r == RoleCampusAdmin || r == RoleSuperAdmin
}

// Campus is reference data for a university site.
type Campus struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   string    `json:"address,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats summarizes a campus for the admin dashboard.
type Stats struct {
	CampusID     int64            `json:"campus_id"`
	UsersByRole  map[string]int   `json:"users_by_role"`
	EventsByType map[string]int   `json:"events_by_type"`
	Attendance   AttendanceTotals `json:"attendance"`
}

// AttendanceTotals are the attendance counters inside Stats.
type AttendanceTotals struct {
	Total       int `json:"total"`
	Verified    int `json:"verified"`
	Flagged     int `json:"flagged"`
	Rejected    int `json:"rejected"`
	CrossCampus int `json:"cross_campus"`
}
