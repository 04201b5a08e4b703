package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eas/internal/apierr"
	"eas/internal/user"
)

func (h *Handler) register(c *gin.Context) {
	var in user.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	u, pair, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u, "tokens": tokenBody(pair)})
}

func (h *Handler) login(c *gin.Context) {
	var in struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	u, pair, err := h.users.Login(c.Request.Context(), in.Identifier, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "tokens": tokenBody(pair)})
}

func (h *Handler) refresh(c *gin.Context) {
	var in struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	u, pair, err := h.users.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "tokens": tokenBody(pair)})
}

func (h *Handler) me(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), scope.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if u == nil {
		respondError(c, apierr.New(apierr.CodeNotFound, "account no longer exists"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
