package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

type fakeSessionSrv struct {
	added   dto.AddSessionRequest
	removed string
}

func (f *fakeSessionSrv) Add(_ context.Context, req dto.AddSessionRequest) (*dto.SessionView, error) {
	f.added = req
	return &dto.SessionView{ID: "sess-1", UserID: "u-1", TokenHint: "****abcdef", CreatedAt: time.Now()}, nil
}

func (f *fakeSessionSrv) ListForUser(_ context.Context, userID string) ([]dto.SessionView, error) {
	return []dto.SessionView{{ID: "sess-1", UserID: userID}}, nil
}

func (f *fakeSessionSrv) Remove(_ context.Context, token string) error {
	f.removed = token
	return nil
}

type fakeSettingsSrv struct {
	saved models.Settings
}

func (f *fakeSettingsSrv) Load(context.Context, string) (models.Settings, error) {
	return models.DefaultSettings(), nil
}

func (f *fakeSettingsSrv) Save(_ context.Context, _ string, s models.Settings) (models.Settings, error) {
	if s.Theme == "neon" {
		return models.Settings{}, appErrors.Clone(appErrors.ErrValidation, "invalid settings payload")
	}
	f.saved = s
	return s, nil
}

func TestAccountHandlerAddSession(t *testing.T) {
	sessions := &fakeSessionSrv{}
	handler := NewAccountHandler(sessions, &fakeSettingsSrv{})

	c, rec := newStudentContext(http.MethodPost, "/sessions", []byte(`{"token":"abc.def.ghi-0123456789","userId":"u-1"}`))
	handler.AddSession(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u-1", sessions.added.UserID)
}

func TestAccountHandlerListSessions(t *testing.T) {
	handler := NewAccountHandler(&fakeSessionSrv{}, &fakeSettingsSrv{})
	c, rec := newStudentContext(http.MethodGet, "/users/u-1/sessions", nil)
	c.Params = gin.Params{{Key: "id", Value: "u-1"}}
	handler.ListSessions(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []dto.SessionView     `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, float64(1), body.Meta["count"])
}

func TestAccountHandlerRemoveSessionFallsBackToHeader(t *testing.T) {
	sessions := &fakeSessionSrv{}
	handler := NewAccountHandler(sessions, &fakeSettingsSrv{})

	c, rec := newStudentContext(http.MethodDelete, "/sessions", nil)
	c.Request.Header.Set("Authorization", "Bearer header-token")
	handler.RemoveSession(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Bearer header-token", sessions.removed)
}

func TestAccountHandlerSettings(t *testing.T) {
	settings := &fakeSettingsSrv{}
	handler := NewAccountHandler(&fakeSessionSrv{}, settings)

	c, rec := newStudentContext(http.MethodGet, "/users/u-1/settings", nil)
	handler.GetSettings(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newStudentContext(http.MethodPut, "/users/u-1/settings", []byte(`{"theme":"dark"}`))
	handler.SaveSettings(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", settings.saved.Theme)
	assert.Equal(t, "vi", settings.saved.Language, "omitted fields keep their defaults")

	c, rec = newStudentContext(http.MethodPut, "/users/u-1/settings", []byte(`{"theme":"neon"}`))
	handler.SaveSettings(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
