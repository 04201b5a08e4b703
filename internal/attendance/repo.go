package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository persists attendance records and their audit trail in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, event_id, user_id, campus_id, cross_campus, verification_status,
	location_verified, distance_m, latitude, longitude, accuracy,
	front_photo_url, back_photo_url, signature_url, verification_score,
	device_info, ip, user_agent, submitted_at, reviewed_by, review_notes, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.EventID, &r.UserID, &r.CampusID, &r.CrossCampus, &r.VerificationStatus,
		&r.LocationVerified, &r.DistanceM, &r.Latitude, &r.Longitude, &r.Accuracy,
		&r.FrontPhotoURL, &r.BackPhotoURL, &r.SignatureURL, &r.VerificationScore,
		&r.DeviceInfo, &r.IP, &r.UserAgent, &r.SubmittedAt, &r.ReviewedBy, &r.ReviewNotes, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// Exists reports whether the student already has a record for the event.
// Advisory only; Insert is what settles races.
func (r *Repository) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendance WHERE event_id = $1 AND user_id = $2)
	`, eventID, userID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Insert writes a record atomically. A concurrent duplicate loses the race
// and comes back with inserted=false; nothing is overwritten.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, event_id, user_id, campus_id, cross_campus, verification_status,
			location_verified, distance_m, latitude, longitude, accuracy,
			front_photo_url, back_photo_url, signature_url,
			device_info, ip, user_agent, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING created_at, updated_at
	`, rec.ID, rec.EventID, rec.UserID, rec.CampusID, rec.CrossCampus, rec.VerificationStatus,
		rec.LocationVerified, rec.DistanceM, rec.Latitude, rec.Longitude, rec.Accuracy,
		rec.FrontPhotoURL, rec.BackPhotoURL, rec.SignatureURL,
		rec.DeviceInfo, rec.IP, rec.UserAgent, rec.SubmittedAt)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return rec, true, nil
}

// Get returns a record by id, nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM attendance WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// List returns records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + recordColumns + ` FROM attendance`
	args := []any{}
	clauses := []string{}
	if len(f.CampusIDs) > 0 {
		args = append(args, f.CampusIDs)
		clauses = append(clauses, fmt.Sprintf("campus_id = ANY($%d)", len(args)))
	}
	if f.EventID != "" {
		args = append(args, f.EventID)
		clauses = append(clauses, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("verification_status = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// UpdateScore stores the async face verification score.
func (r *Repository) UpdateScore(ctx context.Context, id string, score float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET verification_score = $2, updated_at = NOW() WHERE id = $1
	`, id, score)
	return err
}

// SetReview applies a manual review decision.
func (r *Repository) SetReview(ctx context.Context, id string, status VerificationStatus, reviewedBy, notes string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET verification_status = $2, reviewed_by = $3, review_notes = $4, updated_at = NOW()
		WHERE id = $1
	`, id, status, reviewedBy, notes)
	return err
}

// AppendAudit adds a row to the append-only audit trail.
func (r *Repository) AppendAudit(ctx context.Context, e AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_audit (attendance_id, campus_id, action, performed_by, details, ip)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, e.AttendanceID, e.CampusID, e.Action, e.PerformedBy, e.Details, e.IP)
	return err
}

// ListAudit returns the audit trail for a record, oldest first.
func (r *Repository) ListAudit(ctx context.Context, attendanceID string) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, attendance_id, campus_id, action, performed_by, details, ip, created_at
		FROM attendance_audit WHERE attendance_id = $1
		ORDER BY id
	`, attendanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.AttendanceID, &e.CampusID, &e.Action, &e.PerformedBy, &e.Details, &e.IP, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
