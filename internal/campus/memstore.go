package campus

import (
	"context"
	"sync"
	"time"

	"eas/internal/apierr"
)

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu       sync.Mutex
	nextID   int64
	campuses []Campus

	// StatsByID lets tests seed canned stats per campus.
	StatsByID map[int64]Stats
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextID: 1, StatsByID: map[int64]Stats{}}
}

// Insert writes a new campus.
func (m *MemStore) Insert(ctx context.Context, c Campus) (Campus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.campuses {
		if existing.Code == c.Code {
			return Campus{}, apierr.Newf(apierr.CodeConflict, "campus code %s already exists", c.Code)
		}
	}
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	m.campuses = append(m.campuses, c)
	return c, nil
}

// Get returns a campus by id, nil when absent.
func (m *MemStore) Get(ctx context.Context, id int64) (*Campus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.campuses {
		if m.campuses[i].ID == id {
			c := m.campuses[i]
			return &c, nil
		}
	}
	return nil, nil
}

// List returns campuses, optionally only active ones.
func (m *MemStore) List(ctx context.Context, activeOnly bool) ([]Campus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Campus
	for _, c := range m.campuses {
		if activeOnly && !c.IsActive {
			continue
		}
		res = append(res, c)
	}
	return res, nil
}

// Stats returns seeded stats for the campus.
func (m *MemStore) Stats(ctx context.Context, campusID int64) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.StatsByID[campusID]; ok {
		return st, nil
	}
	return Stats{CampusID: campusID, UsersByRole: map[string]int{}, EventsByType: map[string]int{}}, nil
}
