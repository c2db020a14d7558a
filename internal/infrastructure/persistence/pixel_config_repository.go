package persistence

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/tracking"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPixelConfigRepository implements tracking.PixelConfigRepository using GORM
type GormPixelConfigRepository struct {
	db *gorm.DB
}

// NewGormPixelConfigRepository creates a new GormPixelConfigRepository
func NewGormPixelConfigRepository(db *gorm.DB) *GormPixelConfigRepository {
	return &GormPixelConfigRepository{db: db}
}

// Migrate creates or updates the pixel_configs table
func (r *GormPixelConfigRepository) Migrate() error {
	return r.db.AutoMigrate(&models.PixelConfigModel{})
}

// FindEnabled returns all enabled configs in stable platform order
func (r *GormPixelConfigRepository) FindEnabled(ctx context.Context) ([]tracking.PixelConfig, error) {
	var configModels []models.PixelConfigModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("platform ASC").
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]tracking.PixelConfig, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// FindAll returns every config regardless of enabled state
func (r *GormPixelConfigRepository) FindAll(ctx context.Context) ([]tracking.PixelConfig, error) {
	var configModels []models.PixelConfigModel
	if err := r.db.WithContext(ctx).
		Order("platform ASC").
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]tracking.PixelConfig, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// FindByPlatform returns the config for one platform
func (r *GormPixelConfigRepository) FindByPlatform(ctx context.Context, platform tracking.Platform) (*tracking.PixelConfig, error) {
	var model models.PixelConfigModel
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tracking.ErrConfigNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces the config for its platform
func (r *GormPixelConfigRepository) Save(ctx context.Context, cfg *tracking.PixelConfig) error {
	model := models.PixelConfigModelFromDomain(cfg)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}},
			DoUpdates: clause.AssignmentColumns([]string{"external_pixel_id", "enabled", "updated_at"}),
		}).
		Create(model).Error
}

// Delete removes the config for one platform
func (r *GormPixelConfigRepository) Delete(ctx context.Context, platform tracking.Platform) error {
	result := r.db.WithContext(ctx).
		Delete(&models.PixelConfigModel{}, "platform = ?", platform.String())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tracking.ErrConfigNotFound
	}
	return nil
}

// Ensure GormPixelConfigRepository implements PixelConfigRepository
var _ tracking.PixelConfigRepository = (*GormPixelConfigRepository)(nil)
