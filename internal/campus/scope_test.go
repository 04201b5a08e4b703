package campus

import (
	"testing"

	"eas/internal/apierr"
)

func TestCanAccess(t *testing.T) {
	cases := []struct {
		name   string
		scope  Scope
		campus int64
		want   bool
	}{
		{"student own campus", Scope{Role: RoleStudent, CampusID: 1}, 1, true},
		{"student foreign campus", Scope{Role: RoleStudent, CampusID: 1}, 2, false},
		{"organizer own campus", Scope{Role: RoleOrganizer, CampusID: 3}, 3, true},
		{"organizer foreign campus", Scope{Role: RoleOrganizer, CampusID: 3}, 1, false},
		{"campus admin home", Scope{Role: RoleCampusAdmin, CampusID: 1}, 1, true},
		{"campus admin declared", Scope{Role: RoleCampusAdmin, CampusID: 1, AccessibleCampusIDs: []int64{2, 4}}, 4, true},
		{"campus admin undeclared", Scope{Role: RoleCampusAdmin, CampusID: 1, AccessibleCampusIDs: []int64{2, 4}}, 3, false},
		{"super admin anywhere", Scope{Role: RoleSuperAdmin, CampusID: 1}, 99, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.CanAccess(tc.campus); got != tc.want {
				t.Fatalf("CanAccess(%d) = %v, want %v", tc.campus, got, tc.want)
			}
		})
	}
}

func TestForCampusDeniesExplicitly(t *testing.T) {
	scope := Scope{UserID: "u-1", Role: RoleStudent, CampusID: 1}

	if err := scope.ForCampus(1); err != nil {
		t.Fatalf("own campus should pass: %v", err)
	}
	err := scope.ForCampus(2)
	if err == nil {
		t.Fatal("foreign campus must be denied")
	}
	if !apierr.Is(err, apierr.CodeCampusAccessDenied) {
		t.Fatalf("want campus_access_denied, got %v", err)
	}
}

func TestCampusIDsNeverNarrowsSilently(t *testing.T) {
	scope := Scope{Role: RoleOrganizer, CampusID: 1}

	// Requesting an inaccessible campus is an error, not a fallback to the
	// accessible set.
	two := int64(2)
	if _, err := scope.CampusIDs(&two); !apierr.Is(err, apierr.CodeCampusAccessDenied) {
		t.Fatalf("want campus_access_denied, got %v", err)
	}

	ids, err := scope.CampusIDs(nil)
	if err != nil {
		t.Fatalf("CampusIDs(nil): %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("organizer unrestricted set = %v, want [1]", ids)
	}
}

func TestCampusIDsForAdmins(t *testing.T) {
	admin := Scope{Role: RoleCampusAdmin, CampusID: 1, AccessibleCampusIDs: []int64{1, 2, 5}}
	ids, err := admin.CampusIDs(nil)
	if err != nil {
		t.Fatalf("CampusIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("campus admin set = %v, want home plus declared without duplicates", ids)
	}

	super := Scope{Role: RoleSuperAdmin, CampusID: 1}
	ids, err = super.CampusIDs(nil)
	if err != nil {
		t.Fatalf("CampusIDs: %v", err)
	}
	if ids != nil {
		t.Fatalf("super admin set = %v, want nil (unrestricted)", ids)
	}

	nine := int64(9)
	ids, err = super.CampusIDs(&nine)
	if err != nil || len(ids) != 1 || ids[0] != 9 {
		t.Fatalf("super admin requested campus = %v, %v", ids, err)
	}
}

func TestRoleHelpers(t *testing.T) {
	if Role("staff").Valid() {
		t.Fatal("unknown role must be invalid")
	}
	if !RoleCampusAdmin.Elevated() || !RoleSuperAdmin.Elevated() {
		t.Fatal("admin roles are elevated")
	}
	if RoleStudent.Elevated() || RoleOrganizer.Elevated() {
		t.Fatal("student and organizer are not elevated")
	}
}
