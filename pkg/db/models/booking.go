package models

import (
	"time"

	"github.com/garagedesk/workshop-backend/pkg/enums"
	"github.com/google/uuid"
)

// Booking is a service job for a single vehicle, owned by one user.
type Booking struct {
	ID         int64               `gorm:"column:id;primaryKey;autoIncrement"`
	VehicleID  int64               `gorm:"column:vehicle_id;not null;index"`
	UserID     uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Date       time.Time           `gorm:"column:date;not null"`
	Complaint  string              `gorm:"column:complaint;not null"`
	Status     enums.BookingStatus `gorm:"column:status;type:booking_status_enum;not null;default:pending"`
	MechanicID *uuid.UUID          `gorm:"column:mechanic_id;type:uuid"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleID"`
}
