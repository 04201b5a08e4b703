package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) dashboard(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	requested, err := queryCampusID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := h.analytics.Dashboard(c.Request.Context(), scope, requested, queryInt(c, "days", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
