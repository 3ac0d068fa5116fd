package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sparepart is an inventory item. The stock column is mutated only through
// the ledger service so every change lands in stock_mutations.
type Sparepart struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	SKU       string          `gorm:"column:sku;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	MinStock  int             `gorm:"column:min_stock;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLowStock reports whether stock has fallen under the display threshold.
func (s Sparepart) IsLowStock() bool {
	return s.Stock < s.MinStock
}
