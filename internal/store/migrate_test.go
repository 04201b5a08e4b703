package store

import (
	"strings"
	"testing"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		name string
		want int
		ok   bool
	}{
		{"0001_init.sql", 1, true},
		{"0012_add_audit.sql", 12, true},
		{"2_plain.sql", 2, true},
		{"bogus.sql", 0, false},
	}
	for _, tc := range cases {
		got, err := parseVersion(tc.name)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("parseVersion(%s) = %d, %v; want %d", tc.name, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("parseVersion(%s) succeeded, want error", tc.name)
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations embedded")
	}
	prev := 0
	for _, e := range entries {
		v, err := parseVersion(e.Name())
		if err != nil {
			t.Fatalf("migration %s: %v", e.Name(), err)
		}
		if v <= prev {
			t.Fatalf("migration versions not strictly increasing at %s", e.Name())
		}
		prev = v
		b, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if !strings.Contains(string(b), "CREATE TABLE") {
			t.Fatalf("migration %s has no DDL", e.Name())
		}
	}
}
