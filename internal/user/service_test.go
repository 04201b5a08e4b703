package user

import (
	"context"
	"testing"
	"time"

	"eas/internal/apierr"
	"eas/internal/auth"
	"eas/internal/campus"
)

func testService(t *testing.T) (*Service, *campus.MemStore) {
	t.Helper()
	campuses := campus.NewMemStore()
	if _, err := campuses.Insert(context.Background(), campus.Campus{
		Name: "Main", Code: "MAIN", Latitude: 14.6, Longitude: 121.0, Timezone: "Asia/Manila", IsActive: true,
	}); err != nil {
		t.Fatalf("seed campus: %v", err)
	}
	svc := NewService(NewMemStore(), campuses, TokenConfig{
		Issuer: "eas", SigningKey: "secret", AccessTTL: time.Minute, RefreshTTL: time.Hour,
	})
	return svc, campuses
}

func validRegistration() RegisterInput {
	return RegisterInput{
		CampusID:  1,
		StudentNo: "2024-123456",
		Name:      "Ana Cruz",
		Email:     "Ana.Cruz@Example.edu",
		Password:  "correct-horse",
	}
}

func TestRegister(t *testing.T) {
	svc, _ := testService(t)

	u, pair, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != campus.RoleStudent {
		t.Fatalf("role = %s, want student", u.Role)
	}
	if u.Email != "ana.cruz@example.edu" {
		t.Fatalf("email should be normalized, got %q", u.Email)
	}
	if u.PasswordHash == "correct-horse" || u.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("registration must sign the user in")
	}

	claims, err := auth.Parse(pair.AccessToken, "secret", "eas")
	if err != nil {
		t.Fatalf("issued token must parse: %v", err)
	}
	if claims.CampusID != 1 || claims.Role != "student" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := testService(t)

	in := validRegistration()
	in.StudentNo = "24-1234"
	if _, _, err := svc.Register(context.Background(), in); !apierr.Is(err, apierr.CodeValidationError) {
		t.Fatalf("bad student no: want validation_error, got %v", err)
	}

	in = validRegistration()
	in.Password = "short"
	if _, _, err := svc.Register(context.Background(), in); !apierr.Is(err, apierr.CodeValidationError) {
		t.Fatalf("short password: want validation_error, got %v", err)
	}

	in = validRegistration()
	in.CampusID = 77
	if _, _, err := svc.Register(context.Background(), in); !apierr.Is(err, apierr.CodeValidationError) {
		t.Fatalf("unknown campus: want validation_error, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := testService(t)

	if _, _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(context.Background(), validRegistration())
	if !apierr.Is(err, apierr.CodeConflict) {
		t.Fatalf("duplicate register: want conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := testService(t)
	if _, _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		name       string
		identifier string
	}{
		{"by email", "ana.cruz@example.edu"},
		{"by student number", "2024-123456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, pair, err := svc.Login(context.Background(), tc.identifier, "correct-horse")
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if u.StudentNo != "2024-123456" || pair.AccessToken == "" {
				t.Fatalf("unexpected login result: %+v", u)
			}
		})
	}

	if _, _, err := svc.Login(context.Background(), "ana.cruz@example.edu", "wrong"); !apierr.Is(err, apierr.CodeUnauthorized) {
		t.Fatalf("wrong password: want unauthorized, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ghost@example.edu", "whatever"); !apierr.Is(err, apierr.CodeUnauthorized) {
		t.Fatalf("unknown user: want unauthorized, got %v", err)
	}
}

func TestRefreshRotates(t *testing.T) {
	svc, _ := testService(t)
	_, pair, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must mint a new token")
	}

	// The used token is revoked; replaying it fails.
	if _, _, err := svc.Refresh(context.Background(), pair.RefreshToken); !apierr.Is(err, apierr.CodeUnauthorized) {
		t.Fatalf("replayed refresh: want unauthorized, got %v", err)
	}

	// The fresh one still works.
	if _, _, err := svc.Refresh(context.Background(), next.RefreshToken); err != nil {
		t.Fatalf("fresh refresh token: %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _ := testService(t)
	if _, _, err := svc.Refresh(context.Background(), "not-a-jwt"); !apierr.Is(err, apierr.CodeUnauthorized) {
		t.Fatalf("garbage refresh: want unauthorized, got %v", err)
	}
}
