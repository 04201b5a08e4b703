package analytics

import (
	"context"
	"database/sql"
	"time"
)

// Repository is the Postgres rollup store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository backed by db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecomputeDay rebuilds one campus-day row from the attendance and events
// tables. The whole aggregate runs in a single statement, so concurrent
// recomputes of the same day just overwrite each other with identical data.
func (r *Repository) RecomputeDay(ctx context.Context, campusID int64, day time.Time, tz string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analytics_daily (
			campus_id, day, events_held, submissions, verified, flagged,
			rejected, cross_campus, unique_students, computed_at
		)
		SELECT
			$1,
			$2::date,
			(SELECT COUNT(*) FROM events e
			   WHERE e.campus_id = $1
			     AND (e.starts_at AT TIME ZONE $3)::date = $2::date),
			COUNT(a.id),
			COUNT(*) FILTER (WHERE a.verification_status = 'verified'),
			COUNT(*) FILTER (WHERE a.verification_status = 'flagged'),
			COUNT(*) FILTER (WHERE a.verification_status = 'rejected'),
			COUNT(*) FILTER (WHERE a.cross_campus),
			COUNT(DISTINCT a.user_id),
			NOW()
		FROM attendance a
		WHERE a.campus_id = $1
		  AND (a.submitted_at AT TIME ZONE $3)::date = $2::date
		ON CONFLICT (campus_id, day) DO UPDATE SET
			events_held     = EXCLUDED.events_held,
			submissions     = EXCLUDED.submissions,
			verified        = EXCLUDED.verified,
			flagged         = EXCLUDED.flagged,
			rejected        = EXCLUDED.rejected,
			cross_campus    = EXCLUDED.cross_campus,
			unique_students = EXCLUDED.unique_students,
			computed_at     = EXCLUDED.computed_at`,
		campusID, day, tz,
	)
	return err
}

// Range returns rollups between from and to inclusive, oldest first.
// An empty campusIDs slice means no campus restriction.
func (r *Repository) Range(ctx context.Context, campusIDs []int64, from, to time.Time) ([]DayStat, error) {
	query := `
		SELECT campus_id, day, events_held, submissions, verified, flagged,
		       rejected, cross_campus, unique_students, computed_at
		FROM analytics_daily
		WHERE day BETWEEN $1::date AND $2::date`
	args := []any{from, to}
	if len(campusIDs) > 0 {
		query += ` AND campus_id = ANY($3)`
		args = append(args, campusIDs)
	}
	query += ` ORDER BY day, campus_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayStat
	for rows.Next() {
		var st DayStat
		if err := rows.Scan(
			&st.CampusID, &st.Day, &st.EventsHeld, &st.Submissions,
			&st.Verified, &st.Flagged, &st.Rejected, &st.CrossCampus,
			&st.UniqueStudents, &st.ComputedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
