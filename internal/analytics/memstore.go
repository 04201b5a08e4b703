package analytics

import (
	"context"
	"sync"
	"time"
)

// RecomputeCall records one RecomputeDay invocation for test assertions.
type RecomputeCall struct {
	CampusID int64
	Day      time.Time
	TZ       string
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu         sync.Mutex
	stats      []DayStat
	recomputes []RecomputeCall
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Seed preloads rollup rows.
func (m *MemStore) Seed(stats ...DayStat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = append(m.stats, stats...)
}

func (m *MemStore) RecomputeDay(_ context.Context, campusID int64, day time.Time, tz string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputes = append(m.recomputes, RecomputeCall{CampusID: campusID, Day: day, TZ: tz})
	return nil
}

func (m *MemStore) Range(_ context.Context, campusIDs []int64, from, to time.Time) ([]DayStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DayStat
	for _, st := range m.stats {
		if st.Day.Before(from) || st.Day.After(to) {
			continue
		}
		if len(campusIDs) > 0 && !containsCampus(campusIDs, st.CampusID) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// Recomputes returns the recorded calls.
func (m *MemStore) Recomputes() []RecomputeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecomputeCall, len(m.recomputes))
	copy(out, m.recomputes)
	return out
}

func containsCampus(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
