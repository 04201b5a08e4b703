package event

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"eas/internal/apierr"
	"eas/internal/campus"
	"eas/internal/geo"
	"eas/internal/metrics"
)

// Store is the persistence needed by the event service.
type Store interface {
	InsertEvent(ctx context.Context, e Event) (Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, f Filter) ([]Event, error)
	DeactivateEvent(ctx context.Context, id string) error
	RotateToken(ctx context.Context, eventID string, t Token) (Token, error)
	ActiveToken(ctx context.Context, eventID string) (*Token, error)
	TokenByValue(ctx context.Context, value string) (*Token, error)
	InsertScan(ctx context.Context, s Scan) error
	ListScans(ctx context.Context, eventID string, limit, offset int) ([]Scan, error)
}

// Filter narrows event listings.
type Filter struct {
	CampusIDs  []int64
	EventType  string
	DateFrom   *time.Time
	DateTo     *time.Time
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Defaults are applied to events that omit optional knobs.
type Defaults struct {
	GraceMinutes     int
	EarlyOpenMinutes int
	RadiusM          float64
	TokenBytes       int
}

// Service manages events and their QR token lifecycle.
type Service struct {
	store    Store
	defaults Defaults
	now      func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store, d Defaults) *Service {
	if d.GraceMinutes <= 0 {
		d.GraceMinutes = 30
	}
	if d.EarlyOpenMinutes < 0 {
		d.EarlyOpenMinutes = 0
	}
	if d.RadiusM <= 0 {
		d.RadiusM = 100
	}
	if d.TokenBytes <= 0 {
		d.TokenBytes = 24
	}
	return &Service{store: store, defaults: d, now: time.Now}
}

// SetNow overrides the clock for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// CreateInput are the fields accepted when scheduling an event.
type CreateInput struct {
	CampusID         int64     `json:"campus_id" binding:"required"`
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description"`
	EventType        string    `json:"event_type"`
	Venue            string    `json:"venue" binding:"required"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	RadiusM          float64   `json:"radius_m"`
	StartsAt         time.Time `json:"starts_at" binding:"required"`
	EndsAt           time.Time `json:"ends_at" binding:"required"`
	GraceMinutes     *int      `json:"grace_minutes"`
	EarlyOpenMinutes *int      `json:"early_open_minutes"`
	RequireSelfie    bool      `json:"require_selfie"`
	RequireSignature bool      `json:"require_signature"`
}

// Create schedules an event on a campus the scope can access and issues
// its first QR token.
func (s *Service) Create(ctx context.Context, scope campus.Scope, in CreateInput) (Event, Token, error) {
	if err := scope.ForCampus(in.CampusID); err != nil {
		return Event{}, Token{}, err
	}
	if !in.EndsAt.After(in.StartsAt) {
		return Event{}, Token{}, apierr.New(apierr.CodeValidationError, "event must end after it starts")
	}
	if !(geo.Point{Lat: in.Latitude, Lng: in.Longitude}).Valid() {
		return Event{}, Token{}, apierr.New(apierr.CodeValidationError, "venue coordinates out of range")
	}

	e := Event{
		ID:               uuid.NewString(),
		CampusID:         in.CampusID,
		OrganizerID:      scope.UserID,
		Title:            in.Title,
		Description:      in.Description,
		EventType:        in.EventType,
		Venue:            in.Venue,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		RadiusM:          in.RadiusM,
		StartsAt:         in.StartsAt.UTC(),
		EndsAt:           in.EndsAt.UTC(),
		GraceMinutes:     s.defaults.GraceMinutes,
		EarlyOpenMinutes: s.defaults.EarlyOpenMinutes,
		RequireSelfie:    in.RequireSelfie,
		RequireSignature: in.RequireSignature,
		Status:           StatusPublished,
		IsActive:         true,
	}
	if e.EventType == "" {
		e.EventType = "other"
	}
	if e.RadiusM <= 0 {
		e.RadiusM = s.defaults.RadiusM
	}
	if in.GraceMinutes != nil && *in.GraceMinutes >= 0 {
		e.GraceMinutes = *in.GraceMinutes
	}
	if in.EarlyOpenMinutes != nil && *in.EarlyOpenMinutes >= 0 {
		e.EarlyOpenMinutes = *in.EarlyOpenMinutes
	}

	e, err := s.store.InsertEvent(ctx, e)
	if err != nil {
		return Event{}, Token{}, err
	}
	tok, err := s.issueToken(ctx, e)
	if err != nil {
		return Event{}, Token{}, err
	}
	return e, tok, nil
}

// Get returns an event the scope can access.
func (s *Service) Get(ctx context.Context, scope campus.Scope, id string) (Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if e == nil {
		return Event{}, apierr.New(apierr.CodeNotFound, "event not found")
	}
	if err := scope.ForCampus(e.CampusID); err != nil {
		return Event{}, err
	}
	return *e, nil
}

// List returns events visible to the scope, optionally narrowed to one campus.
func (s *Service) List(ctx context.Context, scope campus.Scope, requestedCampus *int64, f Filter) ([]Event, error) {
	ids, err := scope.CampusIDs(requestedCampus)
	if err != nil {
		return nil, err
	}
	f.CampusIDs = ids
	return s.store.ListEvents(ctx, f)
}

// Deactivate soft-deletes an event. The row and its history stay behind.
func (s *Service) Deactivate(ctx context.Context, scope campus.Scope, id string) error {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return apierr.New(apierr.CodeNotFound, "event not found")
	}
	if err := s.authorizeManage(scope, *e); err != nil {
		return err
	}
	return s.store.DeactivateEvent(ctx, id)
}

// ActiveQR returns the current token for an event, issuing the first one if
// the event somehow has none.
func (s *Service) ActiveQR(ctx context.Context, scope campus.Scope, eventID string) (Token, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return Token{}, err
	}
	if e == nil {
		return Token{}, apierr.New(apierr.CodeNotFound, "event not found")
	}
	if err := s.authorizeManage(scope, *e); err != nil {
		return Token{}, err
	}
	tok, err := s.store.ActiveToken(ctx, eventID)
	if err != nil {
		return Token{}, err
	}
	if tok == nil {
		return s.issueToken(ctx, *e)
	}
	return *tok, nil
}

// RefreshQR appends the next token generation and revokes the current one.
// Attendance already submitted under older generations is untouched.
func (s *Service) RefreshQR(ctx context.Context, scope campus.Scope, eventID string) (Token, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return Token{}, err
	}
	if e == nil {
		return Token{}, apierr.New(apierr.CodeNotFound, "event not found")
	}
	if err := s.authorizeManage(scope, *e); err != nil {
		return Token{}, err
	}
	if !e.IsActive {
		return Token{}, apierr.New(apierr.CodeConflict, "event is deactivated")
	}
	return s.issueToken(ctx, *e)
}

// ScanMeta carries requester context into the scan log.
type ScanMeta struct {
	UserID    string
	IP        string
	UserAgent string
	Latitude  *float64
	Longitude *float64
	Accuracy  *float64
}

// Resolve maps a scanned token value to its event. Exactly one scan log row
// is appended per call, whatever the outcome. Expiry is judged against the
// event's current schedule, not the snapshot stored at issue time.
func (s *Service) Resolve(ctx context.Context, value string, meta ScanMeta) (Event, Token, error) {
	scan := Scan{
		Token:     value,
		Outcome:   ScanNotFound,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Latitude:  meta.Latitude,
		Longitude: meta.Longitude,
		Accuracy:  meta.Accuracy,
		ScannedAt: s.now().UTC(),
	}
	if meta.UserID != "" {
		uid := meta.UserID
		scan.UserID = &uid
	}
	defer func() {
		metrics.QRScans.WithLabelValues(string(scan.Outcome)).Inc()
		if err := s.store.InsertScan(ctx, scan); err != nil {
			log.Printf("scan log append failed: %v", err)
		}
	}()

	if value == "" {
		return Event{}, Token{}, apierr.New(apierr.CodeInvalidToken, "qr token required")
	}
	tok, err := s.store.TokenByValue(ctx, value)
	if err != nil {
		return Event{}, Token{}, err
	}
	if tok == nil {
		return Event{}, Token{}, apierr.New(apierr.CodeInvalidToken, "unknown qr token")
	}
	eventID := tok.EventID
	scan.EventID = &eventID

	e, err := s.store.GetEvent(ctx, tok.EventID)
	if err != nil {
		return Event{}, Token{}, err
	}
	if e == nil {
		return Event{}, Token{}, apierr.New(apierr.CodeInvalidToken, "unknown qr token")
	}
	if !e.IsActive {
		scan.Outcome = ScanEventInactive
		return Event{}, Token{}, apierr.New(apierr.CodeInvalidToken, "event is not accepting attendance")
	}
	if tok.RevokedAt != nil {
		scan.Outcome = ScanRevoked
		return Event{}, Token{}, apierr.New(apierr.CodeInvalidToken, "qr code superseded, scan the latest one")
	}
	if s.now().After(e.SubmissionCloses()) {
		scan.Outcome = ScanExpired
		return Event{}, Token{}, apierr.Newf(apierr.CodeExpiredToken, "qr token expired at %s", e.SubmissionCloses().UTC().Format(time.RFC3339))
	}

	scan.Outcome = ScanOK
	return *e, *tok, nil
}

// Scans returns the scan log for an event.
func (s *Service) Scans(ctx context.Context, scope campus.Scope, eventID string, limit, offset int) ([]Scan, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apierr.New(apierr.CodeNotFound, "event not found")
	}
	if err := s.authorizeManage(scope, *e); err != nil {
		return nil, err
	}
	return s.store.ListScans(ctx, eventID, limit, offset)
}

func (s *Service) issueToken(ctx context.Context, e Event) (Token, error) {
	value, err := NewValue(s.defaults.TokenBytes)
	if err != nil {
		return Token{}, err
	}
	return s.store.RotateToken(ctx, e.ID, Token{
		ID:        uuid.NewString(),
		EventID:   e.ID,
		Value:     value,
		IssuedAt:  s.now().UTC(),
		ExpiresAt: e.SubmissionCloses().UTC(),
	})
}

func (s *Service) authorizeManage(scope campus.Scope, e Event) error {
	if err := scope.ForCampus(e.CampusID); err != nil {
		return err
	}
	if scope.Role.Elevated() || e.OrganizerID == scope.UserID {
		return nil
	}
	return apierr.New(apierr.CodeForbidden, "only the organizer or an admin may manage this event")
}
