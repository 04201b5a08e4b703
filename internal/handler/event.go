package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eas/internal/apierr"
	"eas/internal/event"
)

func (h *Handler) createEvent(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var in event.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	evt, tok, err := h.events.Create(c.Request.Context(), scope, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": evt, "qr_token": tok})
}

func (h *Handler) listEvents(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	requested, err := queryCampusID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	f := event.Filter{
		EventType:  c.Query("type"),
		ActiveOnly: c.Query("active") == "true",
		Limit:      queryInt(c, "limit", 0),
		Offset:     queryInt(c, "offset", 0),
	}
	if f.DateFrom, err = queryTime(c, "date_from"); err != nil {
		respondError(c, err)
		return
	}
	if f.DateTo, err = queryTime(c, "date_to"); err != nil {
		respondError(c, err)
		return
	}
	events, err := h.events.List(c.Request.Context(), scope, requested, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func queryTime(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		// Bare dates are accepted too.
		t, err = time.Parse("2006-01-02", v)
	}
	if err != nil {
		return nil, apierr.Newf(apierr.CodeValidationError, "%s %q is not a date", name, v)
	}
	return &t, nil
}

func (h *Handler) getEvent(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	evt, err := h.events.Get(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": evt})
}

func (h *Handler) deactivateEvent(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	if err := h.events.Deactivate(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

// eventQR returns the event's current QR token, as JSON by default or as a
// PNG with ?format=png.
func (h *Handler) eventQR(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	tok, err := h.events.ActiveQR(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("format") == "png" {
		png, err := event.QRPNG(tok.Value, queryInt(c, "size", 0))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_token": tok})
}

func (h *Handler) refreshEventQR(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	tok, err := h.events.RefreshQR(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_token": tok})
}

func (h *Handler) eventScans(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	scans, err := h.events.Scans(c.Request.Context(), scope, c.Param("id"),
		queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": scans})
}
