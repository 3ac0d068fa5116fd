package bookings

import (
	"time"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingDTO is the transport shape for bookings.
type BookingDTO struct {
	ID         int64               `json:"id"`
	VehicleID  int64               `json:"vehicle_id"`
	UserID     uuid.UUID           `json:"user_id"`
	Date       time.Time           `json:"date"`
	Complaint  string              `json:"complaint"`
	Status     enums.BookingStatus `json:"status"`
	MechanicID *uuid.UUID          `json:"mechanic_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// UsageLineDTO is one consumed part on a booking detail. Subtotal is priced
// at the frozen price_at_use, not the current catalogue price.
type UsageLineDTO struct {
	ID          int64            `json:"id"`
	SparepartID int64            `json:"sparepart_id"`
	Name        string           `json:"name"`
	Qty         int              `json:"qty"`
	PriceAtUse  *decimal.Decimal `json:"price_at_use,omitempty"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
}

// BookingDetailDTO is a booking plus its usage lines and parts total.
type BookingDetailDTO struct {
	BookingDTO
	Usages     []UsageLineDTO  `json:"usages"`
	PartsTotal decimal.Decimal `json:"parts_total"`
}

// CreateBookingInput captures the fields required to open a booking. UserID
// is only honored for admins; everyone else books for themselves.
type CreateBookingInput struct {
	VehicleID int64      `json:"vehicle_id" validate:"required"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Date      time.Time  `json:"date" validate:"required"`
	Complaint string     `json:"complaint" validate:"required"`
}

// UpdateBookingInput carries optional fields; nil means leave unchanged.
type UpdateBookingInput struct {
	Date       *time.Time           `json:"date,omitempty"`
	Complaint  *string              `json:"complaint,omitempty" validate:"omitempty,min=1"`
	Status     *enums.BookingStatus `json:"status,omitempty"`
	MechanicID *uuid.UUID           `json:"mechanic_id,omitempty"`
}

func FromModel(b *models.Booking) *BookingDTO {
	if b == nil {
		return nil
	}
	return &BookingDTO{
		ID:         b.ID,
		VehicleID:  b.VehicleID,
		UserID:     b.UserID,
		Date:       b.Date,
		Complaint:  b.Complaint,
		Status:     b.Status,
		MechanicID: b.MechanicID,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func usageLineFromModel(u *models.SparepartUsage) UsageLineDTO {
	line := UsageLineDTO{
		ID:          u.ID,
		SparepartID: u.SparepartID,
		Qty:         u.Qty,
		PriceAtUse:  u.PriceAtUse,
	}
	if u.Sparepart != nil {
		line.Name = u.Sparepart.Name
	}
	if u.PriceAtUse != nil {
		line.Subtotal = u.PriceAtUse.Mul(decimal.NewFromInt(int64(u.Qty)))
	}
	return line
}
