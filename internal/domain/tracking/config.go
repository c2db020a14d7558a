package tracking

import (
	"context"

	"github.com/google/uuid"
)

// PixelConfig is one pixel as configured in the admin back office.
// Identity is the ID field; Platform is unique across configs.
type PixelConfig struct {
	ID              uuid.UUID
	Platform        Platform
	ExternalPixelID string
	Enabled         bool
}

// PixelConfigRepository is the persistence port for pixel configurations
type PixelConfigRepository interface {
	// FindEnabled returns all enabled configs in stable platform order
	FindEnabled(ctx context.Context) ([]PixelConfig, error)

	// FindAll returns every config regardless of enabled state
	FindAll(ctx context.Context) ([]PixelConfig, error)

	// FindByPlatform returns the config for one platform
	FindByPlatform(ctx context.Context, platform Platform) (*PixelConfig, error)

	// Save creates or replaces the config for its platform
	Save(ctx context.Context, cfg *PixelConfig) error

	// Delete removes the config for one platform
	Delete(ctx context.Context, platform Platform) error
}
