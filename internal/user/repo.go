package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"eas/internal/apierr"
)

// Repository persists users and refresh tokens in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, campus_id, role, student_no, name, email, password_hash, is_verified, accessible_campus_ids, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var studentNo sql.NullString
	var accessible []byte
	err := row.Scan(&u.ID, &u.CampusID, &u.Role, &studentNo, &u.Name, &u.Email, &u.PasswordHash, &u.IsVerified, &accessible, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.StudentNo = studentNo.String
	if len(accessible) > 0 {
		if err := json.Unmarshal(accessible, &u.AccessibleCampusIDs); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

// Insert writes a new user. Duplicate email or student number maps to a
// conflict error.
func (r *Repository) Insert(ctx context.Context, u User) (User, error) {
	accessible, err := json.Marshal(u.AccessibleCampusIDs)
	if err != nil {
		return User{}, err
	}
	var studentNo any
	if u.StudentNo != "" {
		studentNo = u.StudentNo
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, campus_id, role, student_no, name, email, password_hash, is_verified, accessible_campus_ids)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, u.ID, u.CampusID, u.Role, studentNo, u.Name, u.Email, u.PasswordHash, u.IsVerified, accessible)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, apierr.New(apierr.CodeConflict, "email or student number already registered")
		}
		return User{}, err
	}
	return u, nil
}

// ByID returns a user by id, nil when absent.
func (r *Repository) ByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ByEmail returns a user by email, nil when absent.
func (r *Repository) ByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// ByStudentNo returns a user by student number, nil when absent.
func (r *Repository) ByStudentNo(ctx context.Context, no string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE student_no = $1`, no))
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// RefreshTokenUser returns the owner of a live refresh token, "" when the
// token is unknown, revoked or expired.
func (r *Repository) RefreshTokenUser(ctx context.Context, token string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id FROM refresh_tokens
		WHERE token = $1 AND NOT revoked AND expires_at > NOW()
	`, token)
	var userID string
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return userID, nil
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
