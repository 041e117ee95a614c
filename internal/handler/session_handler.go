package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
	"github.com/noah-isme/lhu-dashboard-api/pkg/response"
)

type sessionService interface {
	Add(ctx context.Context, req dto.AddSessionRequest) (*dto.SessionView, error)
	ListForUser(ctx context.Context, userID string) ([]dto.SessionView, error)
	Remove(ctx context.Context, token string) error
}

type settingsService interface {
	Load(ctx context.Context, userID string) (models.Settings, error)
	Save(ctx context.Context, userID string, settings models.Settings) (models.Settings, error)
}

// AccountHandler exposes the multi-session store and per-user settings.
type AccountHandler struct {
	sessions sessionService
	settings settingsService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(sessions sessionService, settings settingsService) *AccountHandler {
	return &AccountHandler{sessions: sessions, settings: settings}
}

// AddSession godoc
// @Summary Register a signed-in account on this device
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.AddSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *AccountHandler) AddSession(c *gin.Context) {
	var req dto.AddSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	view, err := h.sessions.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, view)
}

// ListSessions godoc
// @Summary List the live sessions of a user
// @Tags Sessions
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/sessions [get]
func (h *AccountHandler) ListSessions(c *gin.Context) {
	views, err := h.sessions.ListForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, map[string]interface{}{"count": len(views)})
}

// RemoveSession godoc
// @Summary Sign a session out
// @Tags Sessions
// @Accept json
// @Param payload body dto.RemoveSessionRequest false "Token; the Authorization header is used when omitted"
// @Success 204
// @Router /sessions [delete]
func (h *AccountHandler) RemoveSession(c *gin.Context) {
	var req dto.RemoveSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = c.GetHeader("Authorization")
	}
	if err := h.sessions.Remove(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetSettings godoc
// @Summary Load dashboard settings, defaults when none were saved
// @Tags Settings
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/settings [get]
func (h *AccountHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings)
}

// SaveSettings godoc
// @Summary Save dashboard settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body models.Settings true "Settings"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/settings [put]
func (h *AccountHandler) SaveSettings(c *gin.Context) {
	settings := models.DefaultSettings()
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	saved, err := h.settings.Save(c.Request.Context(), c.Param("id"), settings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved)
}
