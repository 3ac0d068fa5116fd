package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/enums"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"github.com/garagedesk/workshop-backend/pkg/metrics"
	"github.com/garagedesk/workshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor is the caller identity every ledger operation authorizes against.
// Controllers derive it from the verified token claims; services never read
// identity from ambient state.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ApplyUsageInput captures a request to consume stock on a booking.
type ApplyUsageInput struct {
	BookingID   int64
	SparepartID int64
	Qty         int
}

// MutationPage is one page of a sparepart's audit trail.
type MutationPage struct {
	Mutations  []models.StockMutation
	NextCursor string
}

// Service owns every stock movement. All writes to the stock column go
// through here so each change lands in stock_mutations.
type Service interface {
	ApplyUsage(ctx context.Context, actor Actor, input ApplyUsageInput) (*models.SparepartUsage, error)
	RemoveUsage(ctx context.Context, actor Actor, usageID int64) error
	RecordAdjustment(ctx context.Context, actor Actor, sparepartID int64, newStock int) (*models.StockMutation, error)
	RecordPurchase(ctx context.Context, actor Actor, sparepartID int64, qty int) (*models.StockMutation, error)
	ListMutations(ctx context.Context, sparepartID int64, params pagination.Params) (*MutationPage, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.LedgerMetrics
}

// NewService wires the stock ledger service. Metrics may be nil.
func NewService(repo Repository, tx txRunner, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: ledgerMetrics}, nil
}

// canManageBooking is the single authorization rule for usage operations:
// admins manage any booking, everyone else only their own.
func canManageBooking(actor Actor, booking *models.Booking) bool {
	if actor.Role == enums.UserRoleAdmin {
		return true
	}
	return booking != nil && booking.UserID == actor.UserID
}

func insufficientStock(available, requested int) *pkgerrors.Error {
	message := fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", available, requested)
	return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
		WithDetails(map[string]string{"qty": message})
}

func (s *service) ApplyUsage(ctx context.Context, actor Actor, input ApplyUsageInput) (*models.SparepartUsage, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.BookingID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.SparepartID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sparepart id required")
	}
	if input.Qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity").
			WithDetails(map[string]string{"qty": "qty must be at least 1"})
	}

	booking, err := s.repo.FindBooking(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if !canManageBooking(actor, booking) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
	}

	part, err := s.repo.FindSparepart(ctx, input.SparepartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sparepart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sparepart")
	}
	if part.Stock < input.Qty {
		s.metrics.IncInsufficientStock()
		return nil, insufficientStock(part.Stock, input.Qty)
	}

	started := time.Now()
	var usage *models.SparepartUsage
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindUsageByBookingAndPart(ctx, input.BookingID, input.SparepartID)
		switch {
		case err == nil:
			if err := repo.IncrementUsageQty(ctx, existing.ID, input.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment usage qty")
			}
			existing.Qty += input.Qty
			usage = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			price := part.Price
			usage = &models.SparepartUsage{
				BookingID:   input.BookingID,
				SparepartID: input.SparepartID,
				Qty:         input.Qty,
				PriceAtUse:  &price,
			}
			if err := repo.CreateUsage(ctx, usage); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create usage")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage")
		}

		// The pre-check above is advisory only; this guarded write is what
		// keeps stock from going negative under concurrent applies.
		ok, err := repo.DecrementStockGuarded(ctx, input.SparepartID, input.Qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			current, err := repo.FindSparepart(ctx, input.SparepartID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload sparepart")
			}
			s.metrics.IncInsufficientStock()
			return insufficientStock(current.Stock, input.Qty)
		}

		mutation := &models.StockMutation{
			SparepartID: input.SparepartID,
			Change:      -input.Qty,
			Reason:      enums.StockMutationReasonUsage,
			ReferenceID: &usage.ID,
		}
		if err := repo.CreateMutation(ctx, mutation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock mutation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDuration("apply_usage", time.Since(started))
	s.metrics.IncMutation(enums.StockMutationReasonUsage.String())
	return usage, nil
}

func (s *service) RemoveUsage(ctx context.Context, actor Actor, usageID int64) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if usageID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage id required")
	}

	usage, err := s.repo.FindUsage(ctx, usageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "usage not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage")
	}

	booking, err := s.repo.FindBooking(ctx, usage.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if !canManageBooking(actor, booking) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
	}

	started := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.DeleteUsage(ctx, usage.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete usage")
		}
		if err := repo.IncrementStock(ctx, usage.SparepartID, usage.Qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}

		// ReferenceID keeps pointing at the deleted row; the trail records
		// history, not live relations.
		mutation := &models.StockMutation{
			SparepartID: usage.SparepartID,
			Change:      usage.Qty,
			Reason:      enums.StockMutationReasonUsageDeleted,
			ReferenceID: &usage.ID,
		}
		if err := repo.CreateMutation(ctx, mutation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock mutation")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.ObserveDuration("remove_usage", time.Since(started))
	s.metrics.IncMutation(enums.StockMutationReasonUsageDeleted.String())
	return nil
}

func (s *service) RecordAdjustment(ctx context.Context, actor Actor, sparepartID int64, newStock int) (*models.StockMutation, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "stock adjustments require admin role")
	}
	if sparepartID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sparepart id required")
	}
	if newStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock").
			WithDetails(map[string]string{"stock": "stock cannot be negative"})
	}

	started := time.Now()
	var mutation *models.StockMutation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		part, err := repo.FindSparepart(ctx, sparepartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sparepart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sparepart")
		}

		change := newStock - part.Stock
		if change == 0 {
			return nil
		}

		ok, err := repo.SetStockGuarded(ctx, sparepartID, newStock, part.Stock)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock changed concurrently, retry the adjustment")
		}

		mutation = &models.StockMutation{
			SparepartID: sparepartID,
			Change:      change,
			Reason:      enums.StockMutationReasonAdjustment,
		}
		if err := repo.CreateMutation(ctx, mutation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock mutation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mutation == nil {
		return nil, nil
	}

	s.metrics.ObserveDuration("record_adjustment", time.Since(started))
	s.metrics.IncMutation(enums.StockMutationReasonAdjustment.String())
	return mutation, nil
}

func (s *service) RecordPurchase(ctx context.Context, actor Actor, sparepartID int64, qty int) (*models.StockMutation, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "restocking requires admin role")
	}
	if sparepartID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sparepart id required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity").
			WithDetails(map[string]string{"qty": "qty must be at least 1"})
	}

	started := time.Now()
	var mutation *models.StockMutation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindSparepart(ctx, sparepartID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sparepart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sparepart")
		}
		if err := repo.IncrementStock(ctx, sparepartID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
		}

		mutation = &models.StockMutation{
			SparepartID: sparepartID,
			Change:      qty,
			Reason:      enums.StockMutationReasonPurchase,
		}
		if err := repo.CreateMutation(ctx, mutation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock mutation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDuration("record_purchase", time.Since(started))
	s.metrics.IncMutation(enums.StockMutationReasonPurchase.String())
	return mutation, nil
}

func (s *service) ListMutations(ctx context.Context, sparepartID int64, params pagination.Params) (*MutationPage, error) {
	if sparepartID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sparepart id required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	if _, err := s.repo.FindSparepart(ctx, sparepartID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sparepart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sparepart")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	mutations, err := s.repo.ListMutations(ctx, sparepartID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock mutations")
	}

	page := &MutationPage{Mutations: mutations}
	if len(mutations) > limit {
		page.Mutations = mutations[:limit]
		last := page.Mutations[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
