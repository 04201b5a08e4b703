package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"eas/internal/apierr"
)

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu      sync.Mutex
	users   []User
	refresh map[string]refreshRow
}

type refreshRow struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{refresh: map[string]refreshRow{}}
}

// Insert writes a new user.
func (m *MemStore) Insert(ctx context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) || (u.StudentNo != "" && existing.StudentNo == u.StudentNo) {
			return User{}, apierr.New(apierr.CodeConflict, "email or student number already registered")
		}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users = append(m.users, u)
	return u, nil
}

// ByID returns a user by id, nil when absent.
func (m *MemStore) ByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// ByEmail returns a user by email, nil when absent.
func (m *MemStore) ByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if strings.EqualFold(m.users[i].Email, email) {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// ByStudentNo returns a user by student number, nil when absent.
func (m *MemStore) ByStudentNo(ctx context.Context, no string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].StudentNo == no {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

// SaveRefreshToken stores a refresh token.
func (m *MemStore) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[token] = refreshRow{userID: userID, expiresAt: expiresAt}
	return nil
}

// RefreshTokenUser returns the owner of a live refresh token.
func (m *MemStore) RefreshTokenUser(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.refresh[token]
	if !ok || row.revoked || time.Now().After(row.expiresAt) {
		return "", nil
	}
	return row.userID, nil
}

// RevokeRefreshToken marks a token revoked.
func (m *MemStore) RevokeRefreshToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.refresh[token]; ok {
		row.revoked = true
		m.refresh[token] = row
	}
	return nil
}
