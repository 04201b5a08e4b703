package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eas/internal/apierr"
	"eas/internal/campus"
)

func (h *Handler) createCampus(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	var in campus.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	created, err := h.campuses.Create(c.Request.Context(), scope, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campus": created})
}

func (h *Handler) listCampuses(c *gin.Context) {
	campuses, err := h.campuses.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campuses": campuses})
}

func (h *Handler) campusStats(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apierr.Newf(apierr.CodeValidationError, "campus id %q is not a number", c.Param("id")))
		return
	}
	stats, err := h.campuses.StatsFor(c.Request.Context(), scope, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
