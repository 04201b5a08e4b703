package analytics

import (
	"context"
	"testing"
	"time"

	"eas/internal/apierr"
	"eas/internal/campus"
)

func seedCampuses(t *testing.T) *campus.MemStore {
	t.Helper()
	store := campus.NewMemStore()
	ctx := context.Background()
	for _, c := range []campus.Campus{
		{Name: "Manila Main", Code: "MAIN", Timezone: "Asia/Manila", IsActive: true},
		{Name: "London Branch", Code: "LON", Timezone: "Europe/London", IsActive: true},
		{Name: "Closed Annex", Code: "OLD", Timezone: "Asia/Manila", IsActive: false},
	} {
		if _, err := store.Insert(ctx, c); err != nil {
			t.Fatalf("seed campus %s: %v", c.Code, err)
		}
	}
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecordSubmittedUsesCampusLocalDate(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store, seedCampuses(t), "UTC")

	// 18:30 UTC on March 10 is already March 11 in Manila.
	submitted := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	if err := svc.RecordSubmitted(context.Background(), 1, submitted); err != nil {
		t.Fatalf("RecordSubmitted: %v", err)
	}

	calls := store.Recomputes()
	if len(calls) != 1 {
		t.Fatalf("recompute calls = %d, want 1", len(calls))
	}
	if calls[0].CampusID != 1 || calls[0].TZ != "Asia/Manila" {
		t.Fatalf("call = %+v", calls[0])
	}
	if !calls[0].Day.Equal(day(2026, 3, 11)) {
		t.Fatalf("day = %v, want 2026-03-11", calls[0].Day)
	}
}

func TestRecordSubmittedUnknownCampusFallsBack(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store, seedCampuses(t), "UTC")

	submitted := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	if err := svc.RecordSubmitted(context.Background(), 99, submitted); err != nil {
		t.Fatalf("RecordSubmitted: %v", err)
	}
	calls := store.Recomputes()
	if len(calls) != 1 || calls[0].TZ != "UTC" {
		t.Fatalf("calls = %+v", calls)
	}
	if !calls[0].Day.Equal(day(2026, 3, 10)) {
		t.Fatalf("day = %v, want the UTC date", calls[0].Day)
	}
}

func TestRecomputeAllCoversActiveCampuses(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store, seedCampuses(t), "UTC")
	svc.SetNow(func() time.Time { return time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC) })

	if err := svc.RecomputeAll(context.Background()); err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}

	calls := store.Recomputes()
	if len(calls) != 2 {
		t.Fatalf("recompute calls = %d, want 2 (inactive campus skipped)", len(calls))
	}
	byCampus := map[int64]RecomputeCall{}
	for _, c := range calls {
		byCampus[c.CampusID] = c
	}
	// 20:00 UTC is March 11 in Manila but still March 10 in London.
	if got := byCampus[1]; !got.Day.Equal(day(2026, 3, 11)) {
		t.Fatalf("manila day = %v", got.Day)
	}
	if got := byCampus[2]; !got.Day.Equal(day(2026, 3, 10)) {
		t.Fatalf("london day = %v", got.Day)
	}
}

func TestDashboardScopingAndTotals(t *testing.T) {
	store := NewMemStore()
	store.Seed(
		DayStat{CampusID: 1, Day: day(2026, 3, 9), Submissions: 40, Verified: 35, Flagged: 3, Rejected: 2, CrossCampus: 1, EventsHeld: 2},
		DayStat{CampusID: 1, Day: day(2026, 3, 10), Submissions: 60, Verified: 58, Flagged: 1, Rejected: 1, CrossCampus: 4, EventsHeld: 3},
		DayStat{CampusID: 2, Day: day(2026, 3, 10), Submissions: 25, Verified: 25, EventsHeld: 1},
		// Outside the 14 day window, must not appear.
		DayStat{CampusID: 1, Day: day(2025, 12, 1), Submissions: 999},
	)
	svc := NewService(store, seedCampuses(t), "UTC")
	svc.SetNow(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) })

	admin := campus.Scope{UserID: "adm-1", Role: campus.RoleCampusAdmin, CampusID: 1}
	d, err := svc.Dashboard(context.Background(), admin, nil, 0)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(d.Days) != 2 {
		t.Fatalf("days = %d, want 2 campus-1 rows", len(d.Days))
	}
	if d.Totals.Submissions != 100 || d.Totals.Verified != 93 || d.Totals.EventsHeld != 5 {
		t.Fatalf("totals = %+v", d.Totals)
	}
	if !d.To.Equal(day(2026, 3, 10)) || !d.From.Equal(day(2026, 2, 25)) {
		t.Fatalf("window = %v .. %v", d.From, d.To)
	}

	// Requesting another campus is denied, not silently narrowed.
	other := int64(2)
	_, err = svc.Dashboard(context.Background(), admin, &other, 0)
	if !apierr.Is(err, apierr.CodeCampusAccessDenied) {
		t.Fatalf("err = %v, want campus_access_denied", err)
	}

	// Super admins aggregate across campuses.
	super := campus.Scope{UserID: "root", Role: campus.RoleSuperAdmin, CampusID: 1}
	d, err = svc.Dashboard(context.Background(), super, nil, 0)
	if err != nil {
		t.Fatalf("super Dashboard: %v", err)
	}
	if len(d.Days) != 3 || d.Totals.Submissions != 125 {
		t.Fatalf("super days=%d totals=%+v", len(d.Days), d.Totals)
	}
}

func TestDashboardWindowCap(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store, seedCampuses(t), "UTC")
	svc.SetNow(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) })

	super := campus.Scope{UserID: "root", Role: campus.RoleSuperAdmin, CampusID: 1}
	d, err := svc.Dashboard(context.Background(), super, nil, 500)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if got := int(d.To.Sub(d.From).Hours()/24) + 1; got != 90 {
		t.Fatalf("window = %d days, want the 90 day cap", got)
	}
}
