package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func limitedRouter(capacity, perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewSimpleTokenBucket(capacity, perMinute).GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":51234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLimiterExhaustion(t *testing.T) {
	r := limitedRouter(3, 60)

	for i := 0; i < 3; i++ {
		if w := hit(r, "198.51.100.7"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, w.Code)
		}
	}
	w := hit(r, "198.51.100.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Fatalf("error code = %q", body.Error.Code)
	}
}

func TestLimiterIsPerIP(t *testing.T) {
	r := limitedRouter(1, 60)

	if w := hit(r, "198.51.100.7"); w.Code != http.StatusOK {
		t.Fatalf("first ip: status %d", w.Code)
	}
	if w := hit(r, "198.51.100.7"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first ip second hit: status %d", w.Code)
	}
	if w := hit(r, "203.0.113.44"); w.Code != http.StatusOK {
		t.Fatalf("second ip must have its own bucket, status %d", w.Code)
	}
}
