package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"eas/internal/apierr"
	"eas/internal/campus"
	"eas/internal/cloudinary"
	"eas/internal/event"
	"eas/internal/geo"
	"eas/internal/metrics"
	"eas/internal/queue"
)

// Store is the persistence needed by the attendance service.
type Store interface {
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	Insert(ctx context.Context, rec Record) (Record, bool, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	UpdateScore(ctx context.Context, id string, score float64) error
	SetReview(ctx context.Context, id string, status VerificationStatus, reviewedBy, notes string) error
	AppendAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, attendanceID string) ([]AuditEntry, error)
}

// TokenResolver maps scanned QR values to events.
type TokenResolver interface {
	Resolve(ctx context.Context, value string, meta event.ScanMeta) (event.Event, event.Token, error)
}

// Uploader stores submission images and returns their public URLs.
type Uploader interface {
	UploadBytes(data []byte, filename string) (*cloudinary.UploadResult, error)
	UploadBase64(data string) (*cloudinary.UploadResult, error)
}

// Filter narrows attendance listings.
type Filter struct {
	CampusIDs []int64
	EventID   string
	UserID    string
	Status    VerificationStatus
	Limit     int
	Offset    int
}

// Service coordinates attendance verification and persistence.
type Service struct {
	store   Store
	events  TokenResolver
	uploads Uploader
	queue   queue.Queue
	now     func() time.Time
}

// NewService creates a service. uploads and q may be nil in development;
// submissions then skip image storage and the async pipeline.
func NewService(store Store, events TokenResolver, uploads Uploader, q queue.Queue) *Service {
	return &Service{store: store, events: events, uploads: uploads, queue: q, now: time.Now}
}

// SetNow overrides the clock for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Image is one submitted picture, either raw bytes or a base64 data URL.
type Image struct {
	Bytes    []byte
	Filename string
	DataURL  string
}

// Present reports whether the image was supplied at all.
func (im Image) Present() bool {
	return len(im.Bytes) > 0 || im.DataURL != ""
}

// Submission is a student's attendance claim for one event.
type Submission struct {
	Token      string
	Latitude   *float64
	Longitude  *float64
	Accuracy   *float64
	FrontPhoto Image
	BackPhoto  Image
	Signature  Image
	DeviceInfo string
	IP         string
	UserAgent  string
}

// VerifyResult is what a student sees right after scanning a QR code.
type VerifyResult struct {
	Event            event.Event `json:"event"`
	TokenGeneration  int         `json:"token_generation"`
	WindowOpen       bool        `json:"window_open"`
	OpensAt          time.Time   `json:"opens_at"`
	ClosesAt         time.Time   `json:"closes_at"`
	AlreadySubmitted bool        `json:"already_submitted"`
	CrossCampus      bool        `json:"cross_campus"`
}

// VerifyQR resolves a scanned token and reports what a submission would
// find, without creating anything.
func (s *Service) VerifyQR(ctx context.Context, scope campus.Scope, token string, meta event.ScanMeta) (VerifyResult, error) {
	meta.UserID = scope.UserID
	evt, tok, err := s.events.Resolve(ctx, token, meta)
	if err != nil {
		return VerifyResult{}, err
	}
	exists, err := s.store.Exists(ctx, evt.ID, scope.UserID)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{
		Event:            evt,
		TokenGeneration:  tok.Generation,
		WindowOpen:       evt.SubmissionOpen(s.now()),
		OpensAt:          evt.SubmissionOpens(),
		ClosesAt:         evt.SubmissionCloses(),
		AlreadySubmitted: exists,
		CrossCampus:      scope.CampusID != evt.CampusID,
	}, nil
}

// Submit verifies an attendance claim and persists it. Checks short-circuit
// in a fixed order: token validity, duplicate, location, window. A claim
// that fails any check leaves no attendance row behind.
func (s *Service) Submit(ctx context.Context, scope campus.Scope, sub Submission) (Record, error) {
	rec, err := s.submit(ctx, scope, sub)
	if err != nil {
		if e, ok := apierr.As(err); ok {
			metrics.Submissions.WithLabelValues(string(e.Code)).Inc()
		} else {
			metrics.Submissions.WithLabelValues("error").Inc()
		}
		return Record{}, err
	}
	metrics.Submissions.WithLabelValues("ok").Inc()
	return rec, nil
}

func (s *Service) submit(ctx context.Context, scope campus.Scope, sub Submission) (Record, error) {
	evt, tok, err := s.events.Resolve(ctx, sub.Token, event.ScanMeta{
		UserID:    scope.UserID,
		IP:        sub.IP,
		UserAgent: sub.UserAgent,
		Latitude:  sub.Latitude,
		Longitude: sub.Longitude,
		Accuracy:  sub.Accuracy,
	})
	if err != nil {
		return Record{}, err
	}

	exists, err := s.store.Exists(ctx, evt.ID, scope.UserID)
	if err != nil {
		return Record{}, err
	}
	if exists {
		return Record{}, apierr.New(apierr.CodeAlreadySubmitted, "attendance already recorded for this event")
	}

	var submitted *geo.Point
	if sub.Latitude != nil && sub.Longitude != nil {
		submitted = &geo.Point{Lat: *sub.Latitude, Lng: *sub.Longitude}
	}
	loc := geo.Check(geo.Point{Lat: evt.Latitude, Lng: evt.Longitude}, submitted, evt.RadiusM)
	if !loc.Within {
		if submitted == nil {
			return Record{}, apierr.New(apierr.CodeLocationMismatch, "location is required to mark attendance")
		}
		return Record{}, apierr.Newf(apierr.CodeLocationMismatch, "you are %.0fm from the venue (allowed %.0fm)", loc.DistanceM, evt.RadiusM)
	}

	now := s.now()
	if !evt.SubmissionOpen(now) {
		if now.Before(evt.SubmissionOpens()) {
			return Record{}, apierr.Newf(apierr.CodeSubmissionWindowClosed, "attendance opens at %s", evt.SubmissionOpens().UTC().Format(time.RFC3339))
		}
		return Record{}, apierr.Newf(apierr.CodeSubmissionWindowClosed, "attendance closed at %s", evt.SubmissionCloses().UTC().Format(time.RFC3339))
	}

	if evt.RequireSelfie && !sub.FrontPhoto.Present() {
		return Record{}, apierr.New(apierr.CodeValidationError, "front photo is required for this event")
	}
	if evt.RequireSignature && !sub.Signature.Present() {
		return Record{}, apierr.New(apierr.CodeValidationError, "signature is required for this event")
	}

	frontURL, err := s.upload(sub.FrontPhoto, fmt.Sprintf("front_%s_%s", evt.ID, scope.UserID))
	if err != nil {
		return Record{}, err
	}
	backURL, err := s.upload(sub.BackPhoto, fmt.Sprintf("back_%s_%s", evt.ID, scope.UserID))
	if err != nil {
		return Record{}, err
	}
	signatureURL, err := s.upload(sub.Signature, fmt.Sprintf("signature_%s_%s", evt.ID, scope.UserID))
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:                 uuid.NewString(),
		EventID:            evt.ID,
		UserID:             scope.UserID,
		CampusID:           scope.CampusID,
		CrossCampus:        scope.CampusID != evt.CampusID,
		VerificationStatus: StatusVerified,
		LocationVerified:   true,
		DistanceM:          loc.DistanceM,
		Latitude:           *sub.Latitude,
		Longitude:          *sub.Longitude,
		Accuracy:           sub.Accuracy,
		FrontPhotoURL:      frontURL,
		BackPhotoURL:       backURL,
		SignatureURL:       signatureURL,
		DeviceInfo:         sub.DeviceInfo,
		IP:                 sub.IP,
		UserAgent:          sub.UserAgent,
		SubmittedAt:        now.UTC(),
	}
	rec, inserted, err := s.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	if !inserted {
		return Record{}, apierr.New(apierr.CodeAlreadySubmitted, "attendance already recorded for this event")
	}

	performer := scope.UserID
	s.audit(ctx, AuditEntry{
		AttendanceID: rec.ID,
		CampusID:     rec.CampusID,
		Action:       "marked",
		PerformedBy:  &performer,
		Details:      fmt.Sprintf("qr generation %d, distance %.0fm", tok.Generation, loc.DistanceM),
		IP:           sub.IP,
	})
	if s.queue != nil {
		if err := s.queue.Publish(ctx, queue.Message{Type: queue.TypeAttendanceSubmitted, Body: []byte(rec.ID)}); err != nil {
			log.Printf("queue publish failed for attendance %s: %v", rec.ID, err)
		}
	}
	return rec, nil
}

// List returns records visible to the scope. Students only ever see their
// own submissions.
func (s *Service) List(ctx context.Context, scope campus.Scope, requestedCampus *int64, f Filter) ([]Record, error) {
	ids, err := scope.CampusIDs(requestedCampus)
	if err != nil {
		return nil, err
	}
	f.CampusIDs = ids
	if scope.Role == campus.RoleStudent {
		f.UserID = scope.UserID
	}
	return s.store.List(ctx, f)
}

// Detail returns one record with its audit trail.
func (s *Service) Detail(ctx context.Context, scope campus.Scope, id string) (Record, []AuditEntry, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, nil, err
	}
	if rec == nil {
		return Record{}, nil, apierr.New(apierr.CodeNotFound, "attendance record not found")
	}
	if rec.UserID != scope.UserID {
		if !scope.Role.Elevated() {
			return Record{}, nil, apierr.New(apierr.CodeForbidden, "not your attendance record")
		}
		if err := scope.ForCampus(rec.CampusID); err != nil {
			return Record{}, nil, err
		}
	}
	audit, err := s.store.ListAudit(ctx, id)
	if err != nil {
		return Record{}, nil, err
	}
	return *rec, audit, nil
}

// ReviewInput is a manual review decision.
type ReviewInput struct {
	Action string `json:"action" binding:"required"`
	Notes  string `json:"notes"`
}

// Review applies an admin decision to a record. This is the only path that
// moves verification_status after submission.
func (s *Service) Review(ctx context.Context, scope campus.Scope, id string, in ReviewInput) (Record, error) {
	if scope.Role == campus.RoleStudent {
		return Record{}, apierr.New(apierr.CodeForbidden, "students may not review attendance")
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec == nil {
		return Record{}, apierr.New(apierr.CodeNotFound, "attendance record not found")
	}
	if err := scope.ForCampus(rec.CampusID); err != nil {
		return Record{}, err
	}

	var status VerificationStatus
	switch in.Action {
	case "verify":
		status = StatusVerified
	case "reject":
		status = StatusRejected
	case "flag":
		status = StatusFlagged
	default:
		return Record{}, apierr.Newf(apierr.CodeValidationError, "unknown review action %q", in.Action)
	}

	if err := s.store.SetReview(ctx, id, status, scope.UserID, in.Notes); err != nil {
		return Record{}, err
	}
	reviewer := scope.UserID
	s.audit(ctx, AuditEntry{
		AttendanceID: id,
		CampusID:     rec.CampusID,
		Action:       string(status),
		PerformedBy:  &reviewer,
		Details:      in.Notes,
	})

	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if updated == nil {
		return Record{}, errors.New("record vanished during review")
	}
	return *updated, nil
}

// Get returns a record without scope checks. For internal consumers only.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// RecordFaceScore stores the async face verification score and leaves an
// audit entry. The record's status is untouched; flagging stays a human
// decision.
func (s *Service) RecordFaceScore(ctx context.Context, id string, score float64) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return apierr.New(apierr.CodeNotFound, "attendance record not found")
	}
	if err := s.store.UpdateScore(ctx, id, score); err != nil {
		return err
	}
	s.audit(ctx, AuditEntry{
		AttendanceID: id,
		CampusID:     rec.CampusID,
		Action:       "scored",
		Details:      fmt.Sprintf("face similarity %.2f", score),
	})
	return nil
}

func (s *Service) upload(im Image, filename string) (string, error) {
	if !im.Present() {
		return "", nil
	}
	if s.uploads == nil {
		return "", errors.New("image storage is not configured")
	}
	var (
		res *cloudinary.UploadResult
		err error
	)
	if len(im.Bytes) > 0 {
		name := im.Filename
		if name == "" {
			name = filename + ".jpg"
		}
		res, err = s.uploads.UploadBytes(im.Bytes, name)
	} else {
		res, err = s.uploads.UploadBase64(im.DataURL)
	}
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	return res.SecureURL, nil
}

func (s *Service) audit(ctx context.Context, e AuditEntry) {
	if err := s.store.AppendAudit(ctx, e); err != nil {
		log.Printf("attendance audit append failed: %v", err)
	}
}
