package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prashan-s/cinema-labs/internal/tmdb"
	"github.com/prashan-s/cinema-labs/pkg/errors"
	"github.com/prashan-s/cinema-labs/pkg/logger"
	"github.com/prashan-s/cinema-labs/pkg/response"
)

// TokenHandler manages the runtime TMDB credential override.
type TokenHandler struct {
	client *tmdb.Client
	log    *zap.Logger
}

// NewTokenHandler constructs a token handler.
func NewTokenHandler(client *tmdb.Client) (*TokenHandler, error) {
	if client == nil {
		return nil, errors.New("TOKEN_HANDLER_INIT", "tmdb client is required", http.StatusInternalServerError)
	}
	return &TokenHandler{client: client, log: logger.WithModule("admin")}, nil
}

// GET /api/admin/token/validate
func (h *TokenHandler) Validate(c *gin.Context) {
	valid := h.client.ValidateToken(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"valid": valid})
}

// PUT /api/admin/token
//
// Installs a new bearer token for all subsequent upstream calls. The token is
// probed against the authentication endpoint first; an invalid token is
// rejected and the previous credential stays in effect.
func (h *TokenHandler) Update(c *gin.Context) {
	var payload struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, errors.NewBadRequest("token is required"))
		return
	}

	previous := h.client.Token()
	h.client.SetToken(payload.Token)

	if !h.client.ValidateToken(c.Request.Context()) {
		h.client.SetToken(previous)
		response.Error(c, errors.NewBadRequest("token was rejected by the TMDB API"))
		return
	}

	h.log.Info("tmdb token override installed")
	response.Success(c, http.StatusOK, gin.H{"valid": true})
}
