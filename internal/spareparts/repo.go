package spareparts

import (
	"context"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes sparepart persistence operations. Stock is written only
// through the ledger service; this repo never touches that column on update.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a spareparts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, part *models.Sparepart) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Sparepart, error) {
	var part models.Sparepart
	if err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Sparepart, error) {
	var parts []models.Sparepart
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// UpdateDetails persists the catalogue columns, leaving stock alone.
func (r *Repository) UpdateDetails(ctx context.Context, part *models.Sparepart) error {
	return r.db.WithContext(ctx).
		Model(&models.Sparepart{}).
		Where("id = ?", part.ID).
		Updates(map[string]any{
			"sku":       part.SKU,
			"name":      part.Name,
			"price":     part.Price,
			"min_stock": part.MinStock,
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Sparepart{}, "id = ?", id).Error
}

// CountUsages reports how many usage rows reference the part.
func (r *Repository) CountUsages(ctx context.Context, sparepartID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SparepartUsage{}).
		Where("sparepart_id = ?", sparepartID).
		Count(&count).Error
	return count, err
}
