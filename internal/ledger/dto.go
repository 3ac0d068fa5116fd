package ledger

import (
	"time"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// UsageDTO is the transport shape for a usage row.
type UsageDTO struct {
	ID          int64            `json:"id"`
	BookingID   int64            `json:"booking_id"`
	SparepartID int64            `json:"sparepart_id"`
	Qty         int              `json:"qty"`
	PriceAtUse  *decimal.Decimal `json:"price_at_use,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// MutationDTO is the transport shape for one audit trail entry.
type MutationDTO struct {
	ID          int64                     `json:"id"`
	SparepartID int64                     `json:"sparepart_id"`
	Change      int                       `json:"change"`
	Reason      enums.StockMutationReason `json:"reason"`
	ReferenceID *int64                    `json:"reference_id,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
}

func UsageFromModel(u *models.SparepartUsage) *UsageDTO {
	if u == nil {
		return nil
	}
	return &UsageDTO{
		ID:          u.ID,
		BookingID:   u.BookingID,
		SparepartID: u.SparepartID,
		Qty:         u.Qty,
		PriceAtUse:  u.PriceAtUse,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func MutationsFromModels(mutations []models.StockMutation) []MutationDTO {
	dtos := make([]MutationDTO, 0, len(mutations))
	for _, m := range mutations {
		dtos = append(dtos, MutationDTO{
			ID:          m.ID,
			SparepartID: m.SparepartID,
			Change:      m.Change,
			Reason:      m.Reason,
			ReferenceID: m.ReferenceID,
			CreatedAt:   m.CreatedAt,
		})
	}
	return dtos
}
