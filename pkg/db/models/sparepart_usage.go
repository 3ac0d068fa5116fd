package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SparepartUsage is a line item: a quantity of one part consumed on one
// booking. At most one row exists per (booking, sparepart) pair; repeated
// applies merge into the existing row. PriceAtUse freezes the unit price at
// the moment of first use so historical totals survive later price changes.
type SparepartUsage struct {
	ID          int64            `gorm:"column:id;primaryKey;autoIncrement"`
	BookingID   int64            `gorm:"column:booking_id;not null;uniqueIndex:idx_usage_booking_part"`
	SparepartID int64            `gorm:"column:sparepart_id;not null;uniqueIndex:idx_usage_booking_part"`
	Qty         int              `gorm:"column:qty;not null"`
	PriceAtUse  *decimal.Decimal `gorm:"column:price_at_use;type:numeric(10,2)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Booking   *Booking   `gorm:"foreignKey:BookingID"`
	Sparepart *Sparepart `gorm:"foreignKey:SparepartID"`
}
