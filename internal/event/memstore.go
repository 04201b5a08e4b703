package event

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu     sync.Mutex
	events map[string]Event
	tokens []Token
	scans  []Scan
	nextID int64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{events: map[string]Event{}, nextID: 1}
}

// InsertEvent writes a new event.
func (m *MemStore) InsertEvent(ctx context.Context, e Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.events[e.ID] = e
	return e, nil
}

// GetEvent returns an event by id, nil when absent.
func (m *MemStore) GetEvent(ctx context.Context, id string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// SetEvent replaces a stored event. Test helper for mutating schedules.
func (m *MemStore) SetEvent(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

// ListEvents returns events matching the filter.
func (m *MemStore) ListEvents(ctx context.Context, f Filter) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Event
	for _, e := range m.events {
		if len(f.CampusIDs) > 0 && !containsID(f.CampusIDs, e.CampusID) {
			continue
		}
		if f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		if f.DateFrom != nil && e.StartsAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && !e.StartsAt.Before(*f.DateTo) {
			continue
		}
		if f.ActiveOnly && !e.IsActive {
			continue
		}
		res = append(res, e)
	}
	return res, nil
}

// DeactivateEvent soft-deletes an event.
func (m *MemStore) DeactivateEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[id]; ok {
		e.IsActive = false
		e.Status = StatusCancelled
		m.events[id] = e
	}
	return nil
}

// RotateToken appends the next generation and revokes the previous one.
func (m *MemStore) RotateToken(ctx context.Context, eventID string, t Token) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	gen := 0
	for i := range m.tokens {
		if m.tokens[i].EventID != eventID {
			continue
		}
		if m.tokens[i].Generation > gen {
			gen = m.tokens[i].Generation
		}
		if m.tokens[i].RevokedAt == nil {
			revoked := now
			m.tokens[i].RevokedAt = &revoked
		}
	}
	t.EventID = eventID
	t.Generation = gen + 1
	m.tokens = append(m.tokens, t)
	if e, ok := m.events[eventID]; ok {
		id := t.ID
		e.CurrentTokenID = &id
		m.events[eventID] = e
	}
	return t, nil
}

// ActiveToken returns the unrevoked token for an event.
func (m *MemStore) ActiveToken(ctx context.Context, eventID string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.tokens) - 1; i >= 0; i-- {
		if m.tokens[i].EventID == eventID && m.tokens[i].RevokedAt == nil {
			t := m.tokens[i]
			return &t, nil
		}
	}
	return nil, nil
}

// TokenByValue returns a token row by value.
func (m *MemStore) TokenByValue(ctx context.Context, value string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tokens {
		if m.tokens[i].Value == value {
			t := m.tokens[i]
			return &t, nil
		}
	}
	return nil, nil
}

// InsertScan appends a scan log row.
func (m *MemStore) InsertScan(ctx context.Context, s Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID
	m.nextID++
	m.scans = append(m.scans, s)
	return nil
}

// ListScans returns the scan log for an event.
func (m *MemStore) ListScans(ctx context.Context, eventID string, limit, offset int) ([]Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Scan
	for _, s := range m.scans {
		if s.EventID != nil && *s.EventID == eventID {
			res = append(res, s)
		}
	}
	return res, nil
}

// AllScans returns every scan row. Test helper.
func (m *MemStore) AllScans() []Scan {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Scan, len(m.scans))
	copy(out, m.scans)
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
