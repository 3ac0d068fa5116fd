package spareparts

import (
	"context"
	"testing"

	"github.com/garagedesk/workshop-backend/internal/ledger"
	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/enums"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepo struct {
	parts      map[int64]*models.Sparepart
	usageCount int64
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{parts: map[int64]*models.Sparepart{}, nextID: 1}
}

func (f *fakeRepo) Create(ctx context.Context, part *models.Sparepart) error {
	part.ID = f.nextID
	f.nextID++
	f.parts[part.ID] = part
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id int64) (*models.Sparepart, error) {
	if part, ok := f.parts[id]; ok {
		copied := *part
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) List(ctx context.Context) ([]models.Sparepart, error) {
	out := make([]models.Sparepart, 0, len(f.parts))
	for _, part := range f.parts {
		out = append(out, *part)
	}
	return out, nil
}

func (f *fakeRepo) UpdateDetails(ctx context.Context, part *models.Sparepart) error {
	stored, ok := f.parts[part.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.SKU = part.SKU
	stored.Name = part.Name
	stored.Price = part.Price
	stored.MinStock = part.MinStock
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	delete(f.parts, id)
	return nil
}

func (f *fakeRepo) CountUsages(ctx context.Context, sparepartID int64) (int64, error) {
	return f.usageCount, nil
}

type fakeLedger struct {
	adjustments []int
	purchases   []int
	err         error
}

func (f *fakeLedger) RecordAdjustment(ctx context.Context, actor ledger.Actor, sparepartID int64, newStock int) (*models.StockMutation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.adjustments = append(f.adjustments, newStock)
	return &models.StockMutation{SparepartID: sparepartID, Reason: enums.StockMutationReasonAdjustment}, nil
}

func (f *fakeLedger) RecordPurchase(ctx context.Context, actor ledger.Actor, sparepartID int64, qty int) (*models.StockMutation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.purchases = append(f.purchases, qty)
	return &models.StockMutation{SparepartID: sparepartID, Change: qty, Reason: enums.StockMutationReasonPurchase}, nil
}

func adminActor() ledger.Actor {
	return ledger.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
}

func TestUpdateRoutesStockThroughLedger(t *testing.T) {
	repo := newFakeRepo()
	stockLedger := &fakeLedger{}
	svc, err := NewService(repo, stockLedger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := svc.Create(context.Background(), CreateSparepartInput{
		SKU:   "flt-001",
		Name:  "Oil filter",
		Price: decimal.RequireFromString("45.00"),
		Stock: 12,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SKU != "FLT-001" {
		t.Fatalf("expected uppercased sku, got %q", created.SKU)
	}

	newStock := 20
	name := "Oil filter (OEM)"
	updated, err := svc.Update(context.Background(), adminActor(), created.ID, UpdateSparepartInput{
		Name:  &name,
		Stock: &newStock,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(stockLedger.adjustments) != 1 || stockLedger.adjustments[0] != 20 {
		t.Fatalf("stock edit must route through the ledger, got %v", stockLedger.adjustments)
	}
	if updated.Name != name || updated.Stock != 20 {
		t.Fatalf("unexpected dto: %+v", updated)
	}

	// Unchanged stock must not produce an adjustment.
	same := 20
	repo.parts[created.ID].Stock = 20
	if _, err := svc.Update(context.Background(), adminActor(), created.ID, UpdateSparepartInput{Stock: &same}); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	if len(stockLedger.adjustments) != 1 {
		t.Fatalf("no-op stock update must not hit the ledger, got %v", stockLedger.adjustments)
	}
}

func TestUpdateSurfacesLedgerError(t *testing.T) {
	repo := newFakeRepo()
	stockLedger := &fakeLedger{err: pkgerrors.New(pkgerrors.CodeForbidden, "stock adjustments require admin role")}
	svc, err := NewService(repo, stockLedger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := svc.Create(context.Background(), CreateSparepartInput{
		SKU:   "BRK-002",
		Name:  "Brake pad",
		Price: decimal.RequireFromString("80.00"),
		Stock: 4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stock := 9
	_, err = svc.Update(context.Background(), adminActor(), created.ID, UpdateSparepartInput{Stock: &stock})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected ledger error to surface, got %v", err)
	}
}

func TestRestock(t *testing.T) {
	repo := newFakeRepo()
	stockLedger := &fakeLedger{}
	svc, err := NewService(repo, stockLedger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := svc.Create(context.Background(), CreateSparepartInput{
		SKU:   "OIL-010",
		Name:  "Engine oil",
		Price: decimal.RequireFromString("110.00"),
		Stock: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Restock(context.Background(), adminActor(), created.ID, RestockInput{Qty: 24}); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if len(stockLedger.purchases) != 1 || stockLedger.purchases[0] != 24 {
		t.Fatalf("restock must route through the ledger, got %v", stockLedger.purchases)
	}
}

func TestDeleteGuardedByUsages(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo, &fakeLedger{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := svc.Create(context.Background(), CreateSparepartInput{
		SKU:   "SPK-007",
		Name:  "Spark plug",
		Price: decimal.RequireFromString("18.00"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.usageCount = 2
	err = svc.Delete(context.Background(), created.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict while usages exist, got %v", err)
	}

	repo.usageCount = 0
	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID); pkgerrors.As(err) == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestLowStockFlag(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo, &fakeLedger{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := svc.Create(context.Background(), CreateSparepartInput{
		SKU:      "BLT-003",
		Name:     "Timing belt",
		Price:    decimal.RequireFromString("150.00"),
		Stock:    1,
		MinStock: 3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.LowStock {
		t.Fatal("expected low stock flag when stock < min_stock")
	}
}
