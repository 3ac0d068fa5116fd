package bookings

import (
	"context"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes booking persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a bookings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).Order("date DESC, id DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *Repository) Save(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Booking{}, "id = ?", id).Error
}

// ListUsages loads the booking's usage lines with their parts attached.
func (r *Repository) ListUsages(ctx context.Context, bookingID int64) ([]models.SparepartUsage, error) {
	var usages []models.SparepartUsage
	if err := r.db.WithContext(ctx).
		Preload("Sparepart").
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

// CountUsages reports how many usage lines hang off the booking.
func (r *Repository) CountUsages(ctx context.Context, bookingID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SparepartUsage{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	return count, err
}

// VehicleExists reports whether the referenced vehicle row is present.
func (r *Repository) VehicleExists(ctx context.Context, vehicleID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("id = ?", vehicleID).
		Count(&count).Error
	return count > 0, err
}
