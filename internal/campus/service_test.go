package campus

import (
	"context"
	"testing"

	"eas/internal/apierr"
)

func TestCreateCampus(t *testing.T) {
	svc := NewService(NewMemStore(), "Asia/Manila")
	super := Scope{UserID: "root", Role: RoleSuperAdmin, CampusID: 1}

	c, err := svc.Create(context.Background(), super, CreateInput{
		Name:      "Main Campus",
		Code:      " main ",
		Latitude:  14.5995,
		Longitude: 120.9842,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Code != "MAIN" {
		t.Fatalf("code should be normalized, got %q", c.Code)
	}
	if c.Timezone != "Asia/Manila" {
		t.Fatalf("timezone should default, got %q", c.Timezone)
	}
	if !c.IsActive {
		t.Fatal("new campus should be active")
	}
}

func TestCreateCampusRejections(t *testing.T) {
	svc := NewService(NewMemStore(), "Asia/Manila")
	super := Scope{UserID: "root", Role: RoleSuperAdmin, CampusID: 1}

	if _, err := svc.Create(context.Background(), Scope{Role: RoleCampusAdmin, CampusID: 1}, CreateInput{Name: "X", Code: "XY", Latitude: 1, Longitude: 1}); !apierr.Is(err, apierr.CodeForbidden) {
		t.Fatalf("campus admin create: want forbidden, got %v", err)
	}
	if _, err := svc.Create(context.Background(), super, CreateInput{Name: "X", Code: "A", Latitude: 1, Longitude: 1}); !apierr.Is(err, apierr.CodeValidationError) {
		t.Fatalf("short code: want validation_error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), super, CreateInput{Name: "X", Code: "XY", Latitude: 95, Longitude: 1}); !apierr.Is(err, apierr.CodeValidationError) {
		t.Fatalf("bad coordinates: want validation_error, got %v", err)
	}
	if _, err := svc.Create(context.Background(), super, CreateInput{Name: "X", Code: "XY", Latitude: 1, Longitude: 1, Timezone: "Mars/Olympus"}); !apierr.Is(err, apierr.CodeValidationError) {
		t.Fatalf("bad timezone: want validation_error, got %v", err)
	}

	if _, err := svc.Create(context.Background(), super, CreateInput{Name: "X", Code: "DUP", Latitude: 1, Longitude: 1}); err != nil {
		t.Fatalf("first DUP: %v", err)
	}
	if _, err := svc.Create(context.Background(), super, CreateInput{Name: "Y", Code: "dup", Latitude: 1, Longitude: 1}); !apierr.Is(err, apierr.CodeConflict) {
		t.Fatalf("duplicate code: want conflict, got %v", err)
	}
}

func TestStatsForChecksScope(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store, "Asia/Manila")
	super := Scope{UserID: "root", Role: RoleSuperAdmin, CampusID: 1}

	c, err := svc.Create(context.Background(), super, CreateInput{Name: "North", Code: "NO", Latitude: 1, Longitude: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	store.StatsByID[c.ID] = Stats{
		CampusID:    c.ID,
		UsersByRole: map[string]int{"student": 42},
		Attendance:  AttendanceTotals{Total: 10, Verified: 9},
	}

	student := Scope{UserID: "s-1", Role: RoleStudent, CampusID: c.ID + 100}
	if _, err := svc.StatsFor(context.Background(), student, c.ID); !apierr.Is(err, apierr.CodeCampusAccessDenied) {
		t.Fatalf("foreign stats: want campus_access_denied, got %v", err)
	}

	st, err := svc.StatsFor(context.Background(), super, c.ID)
	if err != nil {
		t.Fatalf("StatsFor: %v", err)
	}
	if st.UsersByRole["student"] != 42 || st.Attendance.Verified != 9 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	if _, err := svc.StatsFor(context.Background(), super, 9999); !apierr.Is(err, apierr.CodeNotFound) {
		t.Fatalf("missing campus: want not_found, got %v", err)
	}
}

func TestLocationFallsBack(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store, "Asia/Manila")

	loc, err := svc.Location(context.Background(), 404)
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "Asia/Manila" {
		t.Fatalf("missing campus should use default zone, got %s", loc)
	}
}
