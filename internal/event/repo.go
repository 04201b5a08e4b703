package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository persists events, token history and the scan log in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, campus_id, organizer_id, title, description, event_type, venue,
	latitude, longitude, radius_m, starts_at, ends_at, grace_minutes, early_open_minutes,
	require_selfie, require_signature, status, is_active, current_token_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.CampusID, &e.OrganizerID, &e.Title, &e.Description, &e.EventType, &e.Venue,
		&e.Latitude, &e.Longitude, &e.RadiusM, &e.StartsAt, &e.EndsAt, &e.GraceMinutes, &e.EarlyOpenMinutes,
		&e.RequireSelfie, &e.RequireSignature, &e.Status, &e.IsActive, &e.CurrentTokenID, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// InsertEvent writes a new event.
func (r *Repository) InsertEvent(ctx context.Context, e Event) (Event, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, campus_id, organizer_id, title, description, event_type, venue,
			latitude, longitude, radius_m, starts_at, ends_at, grace_minutes, early_open_minutes,
			require_selfie, require_signature, status, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING created_at, updated_at
	`, e.ID, e.CampusID, e.OrganizerID, e.Title, e.Description, e.EventType, e.Venue,
		e.Latitude, e.Longitude, e.RadiusM, e.StartsAt, e.EndsAt, e.GraceMinutes, e.EarlyOpenMinutes,
		e.RequireSelfie, e.RequireSignature, e.Status, e.IsActive)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return Event{}, err
	}
	return e, nil
}

// GetEvent returns an event by id, nil when absent.
func (r *Repository) GetEvent(ctx context.Context, id string) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ListEvents returns events matching the filter, newest first.
func (r *Repository) ListEvents(ctx context.Context, f Filter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	args := []any{}
	clauses := []string{}
	if len(f.CampusIDs) > 0 {
		args = append(args, f.CampusIDs)
		clauses = append(clauses, fmt.Sprintf("campus_id = ANY($%d)", len(args)))
	}
	if f.EventType != "" {
		args = append(args, f.EventType)
		clauses = append(clauses, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		clauses = append(clauses, fmt.Sprintf("starts_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		clauses = append(clauses, fmt.Sprintf("starts_at < $%d", len(args)))
	}
	if f.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY starts_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// DeactivateEvent soft-deletes an event.
func (r *Repository) DeactivateEvent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE events SET is_active = FALSE, status = 'cancelled', updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

// RotateToken appends the next token generation inside one transaction:
// the predecessor is stamped revoked, the event's active pointer moves, and
// no token row is ever deleted or overwritten.
func (r *Repository) RotateToken(ctx context.Context, eventID string, t Token) (Token, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Token{}, err
	}
	defer tx.Rollback()

	// Serializes concurrent rotations for the same event.
	if _, err := tx.ExecContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID); err != nil {
		return Token{}, err
	}

	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(generation), 0) + 1 FROM event_tokens WHERE event_id = $1`, eventID)
	if err := row.Scan(&t.Generation); err != nil {
		return Token{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE event_tokens SET revoked_at = NOW() WHERE event_id = $1 AND revoked_at IS NULL
	`, eventID); err != nil {
		return Token{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO event_tokens (id, event_id, token, generation, issued_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, t.ID, eventID, t.Value, t.Generation, t.IssuedAt, t.ExpiresAt); err != nil {
		return Token{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events SET current_token_id = $2, updated_at = NOW() WHERE id = $1
	`, eventID, t.ID); err != nil {
		return Token{}, err
	}

	if err := tx.Commit(); err != nil {
		return Token{}, err
	}
	t.EventID = eventID
	return t, nil
}

// ActiveToken returns the unrevoked token for an event, nil when none exists.
func (r *Repository) ActiveToken(ctx context.Context, eventID string) (*Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, event_id, token, generation, issued_at, expires_at, revoked_at
		FROM event_tokens WHERE event_id = $1 AND revoked_at IS NULL
		ORDER BY generation DESC LIMIT 1
	`, eventID)
	return scanToken(row)
}

// TokenByValue returns a token row by its opaque value, nil when unknown.
func (r *Repository) TokenByValue(ctx context.Context, value string) (*Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, event_id, token, generation, issued_at, expires_at, revoked_at
		FROM event_tokens WHERE token = $1
	`, value)
	return scanToken(row)
}

func scanToken(row *sql.Row) (*Token, error) {
	var t Token
	if err := row.Scan(&t.ID, &t.EventID, &t.Value, &t.Generation, &t.IssuedAt, &t.ExpiresAt, &t.RevokedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// InsertScan appends a row to the scan log.
func (r *Repository) InsertScan(ctx context.Context, s Scan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qr_scans (token, event_id, user_id, outcome, ip, user_agent, latitude, longitude, accuracy, scanned_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, s.Token, s.EventID, s.UserID, s.Outcome, s.IP, s.UserAgent, s.Latitude, s.Longitude, s.Accuracy, s.ScannedAt)
	return err
}

// ListScans returns the scan log for an event, newest first.
func (r *Repository) ListScans(ctx context.Context, eventID string, limit, offset int) ([]Scan, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token, event_id, user_id, outcome, ip, user_agent, latitude, longitude, accuracy, scanned_at
		FROM qr_scans WHERE event_id = $1
		ORDER BY scanned_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Scan
	for rows.Next() {
		var s Scan
		if err := rows.Scan(&s.ID, &s.Token, &s.EventID, &s.UserID, &s.Outcome, &s.IP, &s.UserAgent, &s.Latitude, &s.Longitude, &s.Accuracy, &s.ScannedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
