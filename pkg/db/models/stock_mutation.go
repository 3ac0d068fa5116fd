package models

import (
	"time"

	"github.com/garagedesk/workshop-backend/pkg/enums"
)

// StockMutation records an immutable change to a sparepart's stock count.
// Rows are append-only; ReferenceID points at the originating usage row and
// may dangle once that row is deleted; the trail documents history, not
// live relations.
type StockMutation struct {
	ID          int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	SparepartID int64                     `gorm:"column:sparepart_id;not null;index"`
	Change      int                       `gorm:"column:change;not null"`
	Reason      enums.StockMutationReason `gorm:"column:reason;type:stock_mutation_reason_enum;not null"`
	ReferenceID *int64                    `gorm:"column:reference_id"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
