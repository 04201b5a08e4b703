package analytics

import "time"

// DayStat is one campus-day attendance rollup. Day is midnight of the
// campus-local date, stored without a time component.
type DayStat struct {
	CampusID       int64     `json:"campus_id"`
	Day            time.Time `json:"day"`
	EventsHeld     int       `json:"events_held"`
	Submissions    int       `json:"submissions"`
	Verified       int       `json:"verified"`
	Flagged        int       `json:"flagged"`
	Rejected       int       `json:"rejected"`
	CrossCampus    int       `json:"cross_campus"`
	UniqueStudents int       `json:"unique_students"`
	ComputedAt     time.Time `json:"computed_at"`
}

// Totals sums DayStats across a dashboard range. Unique student counts do
// not sum across days and are left out.
type Totals struct {
	EventsHeld  int `json:"events_held"`
	Submissions int `json:"submissions"`
	Verified    int `json:"verified"`
	Flagged     int `json:"flagged"`
	Rejected    int `json:"rejected"`
	CrossCampus int `json:"cross_campus"`
}

// Dashboard is the admin analytics response.
type Dashboard struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Days   []DayStat `json:"days"`
	Totals Totals    `json:"totals"`
}
