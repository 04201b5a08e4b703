package campus

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"eas/internal/apierr"
)

// Repository persists campuses in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new campus.
func (r *Repository) Insert(ctx context.Context, c Campus) (Campus, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO campuses (name, code, address, latitude, longitude, timezone, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Code, c.Address, c.Latitude, c.Longitude, c.Timezone, c.IsActive)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Campus{}, apierr.Newf(apierr.CodeConflict, "campus code %s already exists", c.Code)
		}
		return Campus{}, err
	}
	return c, nil
}

// Get returns a campus by id, nil when absent.
func (r *Repository) Get(ctx context.Context, id int64) (*Campus, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, address, latitude, longitude, timezone, is_active, created_at, updated_at
		FROM campuses WHERE id = $1
	`, id)
	var c Campus
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Address, &c.Latitude, &c.Longitude, &c.Timezone, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// List returns campuses, optionally only active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Campus, error) {
	query := `
		SELECT id, name, code, address, latitude, longitude, timezone, is_active, created_at, updated_at
		FROM campuses`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Campus
	for rows.Next() {
		var c Campus
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Address, &c.Latitude, &c.Longitude, &c.Timezone, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// Stats aggregates users, events and attendance for one campus.
func (r *Repository) Stats(ctx context.Context, campusID int64) (Stats, error) {
	st := Stats{
		CampusID:     campusID,
		UsersByRole:  map[string]int{},
		EventsByType: map[string]int{},
	}

	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users WHERE campus_id = $1 GROUP BY role`, campusID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return Stats{}, err
		}
		st.UsersByRole[role] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT event_type, COUNT(*) FROM events WHERE campus_id = $1 GROUP BY event_type`, campusID)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return Stats{}, err
		}
		st.EventsByType[typ] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verification_status = 'verified'),
		       COUNT(*) FILTER (WHERE verification_status = 'flagged'),
		       COUNT(*) FILTER (WHERE verification_status = 'rejected'),
		       COUNT(*) FILTER (WHERE cross_campus)
		FROM attendance WHERE campus_id = $1
	`, campusID)
	if err := row.Scan(&st.Attendance.Total, &st.Attendance.Verified, &st.Attendance.Flagged, &st.Attendance.Rejected, &st.Attendance.CrossCampus); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// NormalizeCode uppercases and trims a campus code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
