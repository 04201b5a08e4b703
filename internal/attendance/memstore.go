package attendance

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu      sync.Mutex
	records []Record
	audits  []AuditEntry
	nextID  int64
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Exists(_ context.Context, eventID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.EventID == eventID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) Insert(_ context.Context, rec Record) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.EventID == rec.EventID && r.UserID == rec.UserID {
			return Record{}, false, nil
		}
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	m.records = append(m.records, rec)
	return rec, true, nil
}

func (m *MemStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MemStore) List(_ context.Context, f Filter) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if len(f.CampusIDs) > 0 && !containsInt64(f.CampusIDs, r.CampusID) {
			continue
		}
		if f.EventID != "" && r.EventID != f.EventID {
			continue
		}
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.VerificationStatus != f.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *MemStore) UpdateScore(_ context.Context, id string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			s := score
			m.records[i].VerificationScore = &s
			m.records[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (m *MemStore) SetReview(_ context.Context, id string, status VerificationStatus, reviewedBy, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].VerificationStatus = status
			rb := reviewedBy
			m.records[i].ReviewedBy = &rb
			m.records[i].ReviewNotes = notes
			m.records[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (m *MemStore) AppendAudit(_ context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.audits = append(m.audits, e)
	return nil
}

func (m *MemStore) ListAudit(_ context.Context, attendanceID string) ([]AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AuditEntry
	for _, e := range m.audits {
		if e.AttendanceID == attendanceID {
			out = append(out, e)
		}
	}
	return out, nil
}

// AllRecords returns a snapshot for test assertions.
func (m *MemStore) AllRecords() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

func containsInt64(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
