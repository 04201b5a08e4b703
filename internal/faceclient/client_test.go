package faceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifySkipMode(t *testing.T) {
	c := New("", true)
	res, err := c.Verify(context.Background(), "user-1", "https://cdn.test/selfie.jpg")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.UserID != "user-1" || !res.Verified || res.Similarity <= 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestVerifyCallsService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if in["user_id"] != "user-1" || in["image_url"] == "" {
			t.Errorf("payload = %v", in)
		}
		json.NewEncoder(w).Encode(VerifyResult{
			UserID:     in["user_id"],
			Verified:   false,
			Similarity: 0.31,
			Threshold:  0.45,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	res, err := c.Verify(context.Background(), "user-1", "https://cdn.test/selfie.jpg")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Verified || res.Similarity != 0.31 {
		t.Fatalf("result = %+v", res)
	}
}

func TestVerifyRequiresImage(t *testing.T) {
	c := New("http://unused", false)
	if _, err := c.Verify(context.Background(), "user-1", ""); err == nil {
		t.Fatal("expected error for missing image url")
	}
}

func TestVerifyServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"no face enrolled"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	if _, err := c.Verify(context.Background(), "user-1", "https://cdn.test/x.jpg"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL, false).Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if err := New("", true).Health(context.Background()); err != nil {
		t.Fatalf("skip Health: %v", err)
	}
}
