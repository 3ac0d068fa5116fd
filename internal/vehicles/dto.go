package vehicles

import (
	"time"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
)

// VehicleDTO is the transport shape for vehicle records.
type VehicleDTO struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Brand      string    `json:"brand"`
	Model      string    `json:"model"`
	Year       int       `json:"year"`
	PlateNo    string    `json:"plate_no"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateVehicleInput captures the fields required to register a vehicle.
type CreateVehicleInput struct {
	CustomerID int64  `json:"customer_id" validate:"required"`
	Brand      string `json:"brand" validate:"required"`
	Model      string `json:"model" validate:"required"`
	Year       int    `json:"year" validate:"required,gte=1950"`
	PlateNo    string `json:"plate_no" validate:"required"`
}

// UpdateVehicleInput carries optional fields; nil means leave unchanged.
type UpdateVehicleInput struct {
	Brand   *string `json:"brand,omitempty" validate:"omitempty,min=1"`
	Model   *string `json:"model,omitempty" validate:"omitempty,min=1"`
	Year    *int    `json:"year,omitempty" validate:"omitempty,gte=1950"`
	PlateNo *string `json:"plate_no,omitempty" validate:"omitempty,min=1"`
}

func FromModel(v *models.Vehicle) *VehicleDTO {
	if v == nil {
		return nil
	}
	return &VehicleDTO{
		ID:         v.ID,
		CustomerID: v.CustomerID,
		Brand:      v.Brand,
		Model:      v.Model,
		Year:       v.Year,
		PlateNo:    v.PlateNo,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}
