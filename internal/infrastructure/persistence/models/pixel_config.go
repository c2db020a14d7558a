// Package models contains GORM persistence models and their domain mappings.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/tracking"
)

// PixelConfigModel is the GORM model for pixel configurations
type PixelConfigModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Platform        string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	ExternalPixelID string    `gorm:"type:varchar(128);not null"`
	Enabled         bool      `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for PixelConfigModel
func (PixelConfigModel) TableName() string {
	return "pixel_configs"
}

// ToDomain converts the model to a domain PixelConfig
func (m *PixelConfigModel) ToDomain() *tracking.PixelConfig {
	return &tracking.PixelConfig{
		ID:              m.ID,
		Platform:        tracking.Platform(m.Platform),
		ExternalPixelID: m.ExternalPixelID,
		Enabled:         m.Enabled,
	}
}

// PixelConfigModelFromDomain converts a domain PixelConfig to the model
func PixelConfigModelFromDomain(cfg *tracking.PixelConfig) *PixelConfigModel {
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &PixelConfigModel{
		ID:              id,
		Platform:        cfg.Platform.String(),
		ExternalPixelID: cfg.ExternalPixelID,
		Enabled:         cfg.Enabled,
	}
}
