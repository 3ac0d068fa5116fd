package ledger

import (
	"context"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for usages and stock mutations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBooking(ctx context.Context, id int64) (*models.Booking, error)
	FindSparepart(ctx context.Context, id int64) (*models.Sparepart, error)
	FindUsage(ctx context.Context, id int64) (*models.SparepartUsage, error)
	FindUsageByBookingAndPart(ctx context.Context, bookingID, sparepartID int64) (*models.SparepartUsage, error)
	CreateUsage(ctx context.Context, usage *models.SparepartUsage) error
	IncrementUsageQty(ctx context.Context, id int64, qty int) error
	DeleteUsage(ctx context.Context, id int64) error
	DecrementStockGuarded(ctx context.Context, sparepartID int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, sparepartID int64, qty int) error
	SetStockGuarded(ctx context.Context, sparepartID int64, newStock, expectedStock int) (bool, error)
	CreateMutation(ctx context.Context, mutation *models.StockMutation) error
	ListMutations(ctx context.Context, sparepartID int64, limit int, cursor *pagination.Cursor) ([]models.StockMutation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindSparepart(ctx context.Context, id int64) (*models.Sparepart, error) {
	var part models.Sparepart
	if err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *repository) FindUsage(ctx context.Context, id int64) (*models.SparepartUsage, error) {
	var usage models.SparepartUsage
	if err := r.db.WithContext(ctx).First(&usage, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *repository) FindUsageByBookingAndPart(ctx context.Context, bookingID, sparepartID int64) (*models.SparepartUsage, error) {
	var usage models.SparepartUsage
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND sparepart_id = ?", bookingID, sparepartID).
		First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *repository) CreateUsage(ctx context.Context, usage *models.SparepartUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *repository) IncrementUsageQty(ctx context.Context, id int64, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.SparepartUsage{}).
		Where("id = ?", id).
		Update("qty", gorm.Expr("qty + ?", qty)).Error
}

func (r *repository) DeleteUsage(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.SparepartUsage{}, "id = ?", id).Error
}

// DecrementStockGuarded subtracts qty only while enough stock remains. The
// predicate and the write share one statement so concurrent applies cannot
// jointly overdraw; callers must check the returned flag.
func (r *repository) DecrementStockGuarded(ctx context.Context, sparepartID int64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Sparepart{}).
		Where("id = ? AND stock >= ?", sparepartID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) IncrementStock(ctx context.Context, sparepartID int64, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Sparepart{}).
		Where("id = ?", sparepartID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

// SetStockGuarded writes an absolute stock value only if the row still holds
// the count the caller computed its delta from.
func (r *repository) SetStockGuarded(ctx context.Context, sparepartID int64, newStock, expectedStock int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Sparepart{}).
		Where("id = ? AND stock = ?", sparepartID, expectedStock).
		Update("stock", newStock)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateMutation(ctx context.Context, mutation *models.StockMutation) error {
	return r.db.WithContext(ctx).Create(mutation).Error
}

func (r *repository) ListMutations(ctx context.Context, sparepartID int64, limit int, cursor *pagination.Cursor) ([]models.StockMutation, error) {
	query := r.db.WithContext(ctx).
		Where("sparepart_id = ?", sparepartID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var mutations []models.StockMutation
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&mutations).Error; err != nil {
		return nil, err
	}
	return mutations, nil
}
