package spareparts

import (
	"time"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// SparepartDTO is the transport shape for inventory items. LowStock is
// derived, not stored.
type SparepartDTO struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	MinStock  int             `json:"min_stock"`
	LowStock  bool            `json:"low_stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateSparepartInput captures the fields required to add an inventory item.
type CreateSparepartInput struct {
	SKU      string          `json:"sku" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"required"`
	Stock    int             `json:"stock" validate:"gte=0"`
	MinStock int             `json:"min_stock" validate:"gte=0"`
}

// UpdateSparepartInput carries optional fields; nil means leave unchanged.
// A non-nil Stock is routed through the ledger as an adjustment so the
// change lands in the audit trail.
type UpdateSparepartInput struct {
	SKU      *string          `json:"sku,omitempty" validate:"omitempty,min=1"`
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	MinStock *int             `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
}

// RestockInput captures a purchase-driven stock increase.
type RestockInput struct {
	Qty int `json:"qty" validate:"required,gte=1"`
}

func FromModel(p *models.Sparepart) *SparepartDTO {
	if p == nil {
		return nil
	}
	return &SparepartDTO{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		LowStock:  p.IsLowStock(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
