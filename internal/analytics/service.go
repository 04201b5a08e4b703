package analytics

import (
	"context"
	"log"
	"time"

	"eas/internal/campus"
	"eas/internal/metrics"
)

// Store persists and queries the daily rollups.
type Store interface {
	RecomputeDay(ctx context.Context, campusID int64, day time.Time, tz string) error
	Range(ctx context.Context, campusIDs []int64, from, to time.Time) ([]DayStat, error)
}

// CampusDirectory is the slice of campus storage the recompute jobs need.
type CampusDirectory interface {
	Get(ctx context.Context, id int64) (*campus.Campus, error)
	List(ctx context.Context, activeOnly bool) ([]campus.Campus, error)
}

// Service owns the analytics rollups. Recomputation always rebuilds a whole
// campus-day from the attendance table, so replayed or duplicated messages
// converge on the same numbers.
type Service struct {
	store     Store
	campuses  CampusDirectory
	defaultTZ string
	now       func() time.Time
}

// NewService creates the analytics service.
func NewService(store Store, campuses CampusDirectory, defaultTZ string) *Service {
	if defaultTZ == "" {
		defaultTZ = "UTC"
	}
	return &Service{store: store, campuses: campuses, defaultTZ: defaultTZ, now: time.Now}
}

// SetNow overrides the clock for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// RecordSubmitted recomputes the rollup for the campus-local day a
// submission landed on.
func (s *Service) RecordSubmitted(ctx context.Context, campusID int64, submittedAt time.Time) error {
	loc, tz := s.campusLocation(ctx, campusID)
	day := localDate(submittedAt, loc)
	return s.recompute(ctx, campusID, day, tz)
}

// RecomputeAll rebuilds today's rollup for every active campus. Failures are
// logged per campus so one bad campus cannot starve the rest.
func (s *Service) RecomputeAll(ctx context.Context) error {
	campuses, err := s.campuses.List(ctx, true)
	if err != nil {
		return err
	}
	for _, c := range campuses {
		loc := s.location(c.Timezone)
		day := localDate(s.now(), loc)
		if err := s.recompute(ctx, c.ID, day, loc.String()); err != nil {
			log.Printf("analytics recompute failed for campus %d: %v", c.ID, err)
		}
	}
	return nil
}

// Dashboard returns rollups for the scope's campuses over the trailing
// window. days defaults to 14 and is capped at 90.
func (s *Service) Dashboard(ctx context.Context, scope campus.Scope, requestedCampus *int64, days int) (Dashboard, error) {
	ids, err := scope.CampusIDs(requestedCampus)
	if err != nil {
		return Dashboard{}, err
	}
	if days <= 0 {
		days = 14
	}
	if days > 90 {
		days = 90
	}

	to := localDate(s.now(), time.UTC)
	from := to.AddDate(0, 0, -(days - 1))
	stats, err := s.store.Range(ctx, ids, from, to)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{From: from, To: to, Days: stats}
	for _, st := range stats {
		d.Totals.EventsHeld += st.EventsHeld
		d.Totals.Submissions += st.Submissions
		d.Totals.Verified += st.Verified
		d.Totals.Flagged += st.Flagged
		d.Totals.Rejected += st.Rejected
		d.Totals.CrossCampus += st.CrossCampus
	}
	return d, nil
}

func (s *Service) recompute(ctx context.Context, campusID int64, day time.Time, tz string) error {
	if err := s.store.RecomputeDay(ctx, campusID, day, tz); err != nil {
		return err
	}
	metrics.AnalyticsRecomputes.Inc()
	return nil
}

func (s *Service) campusLocation(ctx context.Context, campusID int64) (*time.Location, string) {
	c, err := s.campuses.Get(ctx, campusID)
	if err != nil || c == nil {
		loc := s.location(s.defaultTZ)
		return loc, loc.String()
	}
	loc := s.location(c.Timezone)
	return loc, loc.String()
}

func (s *Service) location(tz string) *time.Location {
	if tz == "" {
		tz = s.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("unknown timezone %q, using %s", tz, s.defaultTZ)
		loc, err = time.LoadLocation(s.defaultTZ)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}

// localDate truncates t to midnight of its date in loc, expressed in UTC so
// it maps cleanly onto a DATE column.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
