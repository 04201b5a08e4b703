package campus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"eas/internal/auth"
)

func newScopedRouter(t *testing.T, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{auth.RequireAuth("secret", "eas"), ScopeMiddleware()}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		scope, ok := ScopeFrom(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no scope"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": scope.UserID, "campus_id": scope.CampusID, "role": string(scope.Role)})
	})
	r.GET("/probe", handlers...)
	return r
}

func bearerFor(t *testing.T, id auth.Identity) string {
	t.Helper()
	pair, err := auth.Issue(id, "eas", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + pair.AccessToken
}

func TestScopeMiddlewareResolvesScope(t *testing.T) {
	r := newScopedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", bearerFor(t, auth.Identity{UserID: "u-7", Role: "student", CampusID: 3}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Campus-ID"); got != "3" {
		t.Fatalf("X-Campus-ID = %q, want 3", got)
	}
}

func TestScopeMiddlewareRejectsUnknownRole(t *testing.T) {
	r := newScopedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", bearerFor(t, auth.Identity{UserID: "u-7", Role: "janitor", CampusID: 3}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestScopeMiddlewareRequiresAuth(t *testing.T) {
	r := newScopedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	r := newScopedRouter(t, RequireRole(RoleCampusAdmin, RoleSuperAdmin))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", bearerFor(t, auth.Identity{UserID: "u-1", Role: "student", CampusID: 1}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("student through admin gate: status = %d, want 403", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", bearerFor(t, auth.Identity{UserID: "u-2", Role: "campus_admin", CampusID: 1}))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("campus admin: status = %d, body %s", w.Code, w.Body.String())
	}
}
