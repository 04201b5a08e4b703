package campus

import (
	"context"
	"time"

	"eas/internal/apierr"
	"eas/internal/geo"
)

// Store is the persistence needed by the campus service.
type Store interface {
	Insert(ctx context.Context, c Campus) (Campus, error)
	Get(ctx context.Context, id int64) (*Campus, error)
	List(ctx context.Context, activeOnly bool) ([]Campus, error)
	Stats(ctx context.Context, campusID int64) (Stats, error)
}

// Service manages campus reference data.
type Service struct {
	store           Store
	defaultTimezone string
}

// NewService creates a service backed by a store.
func NewService(store Store, defaultTimezone string) *Service {
	if defaultTimezone == "" {
		defaultTimezone = "Asia/Manila"
	}
	return &Service{store: store, defaultTimezone: defaultTimezone}
}

// CreateInput are the fields accepted when registering a campus.
type CreateInput struct {
	Name      string  `json:"name" binding:"required"`
	Code      string  `json:"code" binding:"required"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Create registers a new campus. Only super admins reach this path.
func (s *Service) Create(ctx context.Context, scope Scope, in CreateInput) (Campus, error) {
	if scope.Role != RoleSuperAdmin {
		return Campus{}, apierr.New(apierr.CodeForbidden, "only super admins manage campuses")
	}
	code := NormalizeCode(in.Code)
	if len(code) < 2 || len(code) > 10 {
		return Campus{}, apierr.New(apierr.CodeValidationError, "campus code must be 2-10 characters")
	}
	if !(geo.Point{Lat: in.Latitude, Lng: in.Longitude}).Valid() {
		return Campus{}, apierr.New(apierr.CodeValidationError, "campus coordinates out of range")
	}
	tz := in.Timezone
	if tz == "" {
		tz = s.defaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return Campus{}, apierr.Newf(apierr.CodeValidationError, "unknown timezone %q", tz)
	}
	return s.store.Insert(ctx, Campus{
		Name:      in.Name,
		Code:      code,
		Address:   in.Address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Timezone:  tz,
		IsActive:  true,
	})
}

// List returns the active campus directory.
func (s *Service) List(ctx context.Context) ([]Campus, error) {
	return s.store.List(ctx, true)
}

// Get returns one campus.
func (s *Service) Get(ctx context.Context, id int64) (*Campus, error) {
	return s.store.Get(ctx, id)
}

// StatsFor returns aggregate numbers for a campus the scope can access.
func (s *Service) StatsFor(ctx context.Context, scope Scope, campusID int64) (Stats, error) {
	if err := scope.ForCampus(campusID); err != nil {
		return Stats{}, err
	}
	c, err := s.store.Get(ctx, campusID)
	if err != nil {
		return Stats{}, err
	}
	if c == nil {
		return Stats{}, apierr.Newf(apierr.CodeNotFound, "campus %d not found", campusID)
	}
	return s.store.Stats(ctx, campusID)
}

// Location returns the time zone of a campus, falling back to the default.
func (s *Service) Location(ctx context.Context, campusID int64) (*time.Location, error) {
	c, err := s.store.Get(ctx, campusID)
	if err != nil {
		return nil, err
	}
	tz := s.defaultTimezone
	if c != nil && c.Timezone != "" {
		tz = c.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, nil
	}
	return loc, nil
}
