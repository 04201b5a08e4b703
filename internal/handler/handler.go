// Package handler wires the HTTP API to the domain services. Handlers stay
// thin: bind, call the service with the request's campus scope, translate
// errors.
package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eas/internal/analytics"
	"eas/internal/apierr"
	"eas/internal/attendance"
	"eas/internal/auth"
	"eas/internal/campus"
	"eas/internal/config"
	"eas/internal/event"
	"eas/internal/user"
)

// Handler carries the services behind the HTTP surface.
type Handler struct {
	cfg        config.App
	users      *user.Service
	events     *event.Service
	attendance *attendance.Service
	campuses   *campus.Service
	analytics  *analytics.Service
}

// New creates a handler over the given services.
func New(cfg config.App, users *user.Service, events *event.Service, att *attendance.Service, campuses *campus.Service, an *analytics.Service) *Handler {
	return &Handler{cfg: cfg, users: users, events: events, attendance: att, campuses: campuses, analytics: an}
}

// Register mounts the /v1 API. Every authenticated route passes through the
// campus scope middleware; there is no way to reach a handler with claims
// but no scope.
func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.POST("/auth/register", h.register)
	v1.POST("/auth/login", h.login)
	v1.POST("/auth/refresh", h.refresh)

	api := v1.Group("", auth.RequireAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer), campus.ScopeMiddleware())
	api.GET("/me", h.me)

	api.POST("/attendance/verify-qr", h.verifyQR)
	api.POST("/attendance/submit", h.submitAttendance)
	api.GET("/attendance", h.listAttendance)
	api.GET("/attendance/:id", h.attendanceDetail)

	manage := api.Group("", campus.RequireRole(campus.RoleOrganizer, campus.RoleCampusAdmin, campus.RoleSuperAdmin))
	manage.POST("/attendance/:id/review", h.reviewAttendance)

	api.GET("/events", h.listEvents)
	api.GET("/events/:id", h.getEvent)
	manage.POST("/events", h.createEvent)
	manage.DELETE("/events/:id", h.deactivateEvent)
	manage.GET("/events/:id/qr", h.eventQR)
	manage.POST("/events/:id/qr/refresh", h.refreshEventQR)
	manage.GET("/events/:id/scans", h.eventScans)
	manage.GET("/analytics/dashboard", h.dashboard)

	api.GET("/campuses", h.listCampuses)
	api.POST("/campuses", campus.RequireRole(campus.RoleSuperAdmin), h.createCampus)
	api.GET("/campuses/:id/stats", campus.RequireRole(campus.RoleCampusAdmin, campus.RoleSuperAdmin), h.campusStats)
}

// respondError writes the error contract body. Errors without a known code
// are logged and masked as 500s.
func respondError(c *gin.Context, err error) {
	if e, ok := apierr.As(err); ok {
		c.JSON(apierr.Status(err), gin.H{"error": e})
		return
	}
	log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{"code": "internal", "message": "something went wrong"},
	})
}

func bindError(c *gin.Context, err error) {
	respondError(c, apierr.Newf(apierr.CodeValidationError, "invalid request: %v", err))
}

func mustScope(c *gin.Context) (campus.Scope, bool) {
	scope, ok := campus.ScopeFrom(c)
	if !ok {
		respondError(c, apierr.New(apierr.CodeUnauthorized, "authentication required"))
	}
	return scope, ok
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// queryCampusID returns the campus_id query parameter, nil when absent.
func queryCampusID(c *gin.Context) (*int64, error) {
	v := c.Query("campus_id")
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, apierr.Newf(apierr.CodeValidationError, "campus_id %q is not a number", v)
	}
	return &id, nil
}

func tokenBody(pair auth.TokenPair) gin.H {
	return gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
	}
}
