package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/kv"
	"github.com/famledger/famledger/internal/models"
)

const settingsKeyPrefix = "settings:"

// SettingsService persists each user's presentation settings through
// the injected key-value store.
type SettingsService interface {
	GetSettings(ctx context.Context, owner string) (models.Settings, error)
	UpdateSettings(ctx context.Context, owner string, settings models.Settings) (models.Settings, error)
}

// settingsService implements the SettingsService interface
type settingsService struct {
	store kv.Store
}

// NewSettingsService creates a new settings service
func NewSettingsService(store kv.Store) SettingsService {
	return &settingsService{store: store}
}

// GetSettings returns the owner's settings, falling back to defaults
// when nothing has been saved yet.
func (s *settingsService) GetSettings(ctx context.Context, owner string) (models.Settings, error) {
	if owner == "" {
		return models.Settings{}, common.ErrNotAuthenticated
	}

	raw, err := s.store.Get(ctx, settingsKeyPrefix+owner)
	if errors.Is(err, common.ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, err
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		// A corrupt document falls back to defaults rather than
		// locking the user out of their preferences.
		return models.DefaultSettings(), nil
	}
	return settings, nil
}

// UpdateSettings validates and stores the owner's settings.
func (s *settingsService) UpdateSettings(ctx context.Context, owner string, settings models.Settings) (models.Settings, error) {
	if owner == "" {
		return models.Settings{}, common.ErrNotAuthenticated
	}
	if settings.Theme != "light" && settings.Theme != "dark" {
		return models.Settings{}, common.NewValidationError("theme", "must be light or dark")
	}
	if settings.Currency == "" {
		return models.Settings{}, common.NewValidationError("currency", "currency is required")
	}
	if settings.WeekStart != "monday" && settings.WeekStart != "sunday" {
		return models.Settings{}, common.NewValidationError("weekStart", "must be monday or sunday")
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return models.Settings{}, err
	}
	if err := s.store.Set(ctx, settingsKeyPrefix+owner, string(raw), 0); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}
