package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

// SettingsService persists per-user dashboard preferences.
type SettingsService struct {
	store     *ExpiringStore[models.Settings]
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(store *ExpiringStore[models.Settings], validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, validator: validate, logger: logger}
}

// Load returns the saved settings, or the defaults when nothing was saved. Saved settings never expire for reads.
func (s *SettingsService) Load(ctx context.Context, userID string) (models.Settings, error) {
	userID, err := s.userID(userID)
	if err != nil {
		return models.Settings{}, err
	}
	if settings, ok := s.store.GetStale(ctx, userID); ok {
		return settings, nil
	}
	return models.DefaultSettings(), nil
}

// Save validates and stores the settings.
func (s *SettingsService) Save(ctx context.Context, userID string, settings models.Settings) (models.Settings, error) {
	userID, err := s.userID(userID)
	if err != nil {
		return models.Settings{}, err
	}
	if err := s.validator.Struct(settings); err != nil {
		return models.Settings{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	s.store.Set(ctx, userID, settings)
	s.logger.Debug("settings saved", zap.String("user_id", userID))
	return settings, nil
}

func (s *SettingsService) userID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if err := s.validator.Var(userID, "required,max=64"); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user id")
	}
	return userID, nil
}
