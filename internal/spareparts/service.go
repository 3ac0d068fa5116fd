package spareparts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garagedesk/workshop-backend/internal/ledger"
	"github.com/garagedesk/workshop-backend/pkg/db"
	"github.com/garagedesk/workshop-backend/pkg/db/models"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"gorm.io/gorm"
)

type sparepartRepository interface {
	Create(ctx context.Context, part *models.Sparepart) error
	FindByID(ctx context.Context, id int64) (*models.Sparepart, error)
	List(ctx context.Context) ([]models.Sparepart, error)
	UpdateDetails(ctx context.Context, part *models.Sparepart) error
	Delete(ctx context.Context, id int64) error
	CountUsages(ctx context.Context, sparepartID int64) (int64, error)
}

type stockLedger interface {
	RecordAdjustment(ctx context.Context, actor ledger.Actor, sparepartID int64, newStock int) (*models.StockMutation, error)
	RecordPurchase(ctx context.Context, actor ledger.Actor, sparepartID int64, qty int) (*models.StockMutation, error)
}

// Service exposes sparepart catalogue operations. Stock changes always go
// through the ledger so the audit trail stays complete.
type Service interface {
	Create(ctx context.Context, input CreateSparepartInput) (*SparepartDTO, error)
	GetByID(ctx context.Context, id int64) (*SparepartDTO, error)
	List(ctx context.Context) ([]SparepartDTO, error)
	Update(ctx context.Context, actor ledger.Actor, id int64, input UpdateSparepartInput) (*SparepartDTO, error)
	Restock(ctx context.Context, actor ledger.Actor, id int64, input RestockInput) (*SparepartDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo   sparepartRepository
	ledger stockLedger
}

// NewService builds a sparepart service with the provided dependencies.
func NewService(repo sparepartRepository, stockLedger stockLedger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sparepart repository required")
	}
	if stockLedger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{repo: repo, ledger: stockLedger}, nil
}

func (s *service) Create(ctx context.Context, input CreateSparepartInput) (*SparepartDTO, error) {
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	part := &models.Sparepart{
		SKU:      strings.ToUpper(strings.TrimSpace(input.SKU)),
		Name:     strings.TrimSpace(input.Name),
		Price:    input.Price,
		Stock:    input.Stock,
		MinStock: input.MinStock,
	}
	if err := s.repo.Create(ctx, part); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sparepart")
	}
	return FromModel(part), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*SparepartDTO, error) {
	part, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(part), nil
}

func (s *service) List(ctx context.Context) ([]SparepartDTO, error) {
	parts, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list spareparts")
	}
	dtos := make([]SparepartDTO, 0, len(parts))
	for i := range parts {
		dtos = append(dtos, *FromModel(&parts[i]))
	}
	return dtos, nil
}

func (s *service) Update(ctx context.Context, actor ledger.Actor, id int64, input UpdateSparepartInput) (*SparepartDTO, error) {
	part, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.SKU != nil {
		part.SKU = strings.ToUpper(strings.TrimSpace(*input.SKU))
	}
	if input.Name != nil {
		part.Name = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		part.Price = *input.Price
	}
	if input.MinStock != nil {
		part.MinStock = *input.MinStock
	}

	if err := s.repo.UpdateDetails(ctx, part); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sparepart")
	}

	if input.Stock != nil && *input.Stock != part.Stock {
		if _, err := s.ledger.RecordAdjustment(ctx, actor, id, *input.Stock); err != nil {
			return nil, err
		}
		part.Stock = *input.Stock
	}

	return FromModel(part), nil
}

func (s *service) Restock(ctx context.Context, actor ledger.Actor, id int64, input RestockInput) (*SparepartDTO, error) {
	if _, err := s.ledger.RecordPurchase(ctx, actor, id, input.Qty); err != nil {
		return nil, err
	}
	part, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(part), nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	usages, err := s.repo.CountUsages(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count usages")
	}
	if usages > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sparepart is still used on bookings")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sparepart")
	}
	return nil
}

func (s *service) find(ctx context.Context, id int64) (*models.Sparepart, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sparepart id required")
	}
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sparepart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sparepart")
	}
	return part, nil
}
