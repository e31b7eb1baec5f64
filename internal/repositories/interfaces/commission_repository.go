package interfaces

import (
	"context"

	"github.com/atiaa9916/stp-backend/internal/models"
)

type CommissionSettingsRepository interface {
	// GetActive returns the single active row, or (nil, nil) when none is
	// active (a legal state during activation and before first configuration).
	GetActive(ctx context.Context) (*models.CommissionSettings, error)

	// GetLatest returns the most recently updated row regardless of
	// activation, or (nil, nil) when the collection is empty.
	GetLatest(ctx context.Context) (*models.CommissionSettings, error)

	Create(ctx context.Context, settings *models.CommissionSettings) error
	Update(ctx context.Context, settings *models.CommissionSettings) error

	// DeactivateAll clears the active flag everywhere. Called inside the same
	// unit of work that activates the replacement row.
	DeactivateAll(ctx context.Context) error
}

// SettingRepository reads the legacy free-form settings collection; the
// policy resolver consults the "commission" key as its second fallback.
type SettingRepository interface {
	GetByKey(ctx context.Context, key string) (*models.Setting, error)
}
