package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/garagedesk/workshop-backend/internal/ledger"
	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/enums"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:bookings_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Customer{},
		&models.Vehicle{},
		&models.Sparepart{},
		&models.Booking{},
		&models.SparepartUsage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedVehicle(t *testing.T, conn *gorm.DB) *models.Vehicle {
	t.Helper()
	customer := models.Customer{Name: "Rina", Phone: "0811", Email: "rina+" + uuid.NewString() + "@example.com", Address: "Jl. Kenanga 5"}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	vehicle := models.Vehicle{CustomerID: customer.ID, Brand: "Honda", Model: "Jazz", Year: 2021, PlateNo: "D " + uuid.NewString()[:8]}
	if err := conn.Create(&vehicle).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return &vehicle
}

func customerActor() ledger.Actor {
	return ledger.Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}
}

func TestCreateBooking(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	vehicle := seedVehicle(t, conn)
	actor := customerActor()

	created, err := svc.Create(ctx, actor, CreateBookingInput{
		VehicleID: vehicle.ID,
		Date:      time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		Complaint: "brakes squeal",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID != actor.UserID {
		t.Fatalf("booking must belong to the actor, got %s", created.UserID)
	}
	if created.Status != enums.BookingStatusPending {
		t.Fatalf("new bookings start pending, got %s", created.Status)
	}

	// Non-admins cannot book on behalf of someone else.
	other := uuid.New()
	_, err = svc.Create(ctx, actor, CreateBookingInput{
		VehicleID: vehicle.ID,
		UserID:    &other,
		Date:      time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Complaint: "oil change",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	admin := ledger.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	onBehalf, err := svc.Create(ctx, admin, CreateBookingInput{
		VehicleID: vehicle.ID,
		UserID:    &other,
		Date:      time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Complaint: "oil change",
	})
	if err != nil {
		t.Fatalf("admin create on behalf: %v", err)
	}
	if onBehalf.UserID != other {
		t.Fatalf("expected booking for %s, got %s", other, onBehalf.UserID)
	}

	_, err = svc.Create(ctx, actor, CreateBookingInput{
		VehicleID: 9999,
		Date:      time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		Complaint: "ghost vehicle",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown vehicle, got %v", err)
	}
}

func TestListScopedByRole(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	vehicle := seedVehicle(t, conn)

	alice := customerActor()
	bob := customerActor()
	for _, actor := range []ledger.Actor{alice, alice, bob} {
		if _, err := svc.Create(ctx, actor, CreateBookingInput{
			VehicleID: vehicle.ID,
			Date:      time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
			Complaint: "inspection",
		}); err != nil {
			t.Fatalf("seed booking: %v", err)
		}
	}

	own, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("customer must only see own bookings, got %d", len(own))
	}

	mechanic := ledger.Actor{UserID: uuid.New(), Role: enums.UserRoleMechanic}
	all, err := svc.List(ctx, mechanic)
	if err != nil {
		t.Fatalf("list as mechanic: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("staff must see all bookings, got %d", len(all))
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	vehicle := seedVehicle(t, conn)
	owner := customerActor()
	admin := ledger.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	booking, err := svc.Create(ctx, owner, CreateBookingInput{
		VehicleID: vehicle.ID,
		Date:      time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC),
		Complaint: "weird noise",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := enums.BookingStatusCompleted
	_, err = svc.Update(ctx, admin, booking.ID, UpdateBookingInput{Status: &completed})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("pending cannot jump to completed, got %v", err)
	}

	inProgress := enums.BookingStatusInProgress
	updated, err := svc.Update(ctx, admin, booking.ID, UpdateBookingInput{Status: &inProgress})
	if err != nil {
		t.Fatalf("move to in_progress: %v", err)
	}
	if updated.Status != enums.BookingStatusInProgress {
		t.Fatalf("unexpected status: %s", updated.Status)
	}

	// Customers cannot edit once work started.
	complaint := "also check wipers"
	_, err = svc.Update(ctx, owner, booking.ID, UpdateBookingInput{Complaint: &complaint})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for customer edit, got %v", err)
	}

	if _, err := svc.Update(ctx, admin, booking.ID, UpdateBookingInput{Status: &completed}); err != nil {
		t.Fatalf("complete booking: %v", err)
	}

	cancelled := enums.BookingStatusCancelled
	_, err = svc.Update(ctx, admin, booking.ID, UpdateBookingInput{Status: &cancelled})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("completed is terminal, got %v", err)
	}
}

func TestCustomerCancelAndMechanicAssignment(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	vehicle := seedVehicle(t, conn)
	owner := customerActor()

	booking, err := svc.Create(ctx, owner, CreateBookingInput{
		VehicleID: vehicle.ID,
		Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Complaint: "flat battery",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mechanicID := uuid.New()
	_, err = svc.Update(ctx, owner, booking.ID, UpdateBookingInput{MechanicID: &mechanicID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("customers cannot assign mechanics, got %v", err)
	}

	mechanic := ledger.Actor{UserID: uuid.New(), Role: enums.UserRoleMechanic}
	_, err = svc.Update(ctx, mechanic, booking.ID, UpdateBookingInput{MechanicID: &mechanicID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("mechanic assignment is admin-only, got %v", err)
	}

	admin := ledger.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	assigned, err := svc.Update(ctx, admin, booking.ID, UpdateBookingInput{MechanicID: &mechanicID})
	if err != nil {
		t.Fatalf("assign mechanic: %v", err)
	}
	if assigned.MechanicID == nil || *assigned.MechanicID != mechanicID {
		t.Fatalf("unexpected mechanic: %v", assigned.MechanicID)
	}

	cancelled := enums.BookingStatusCancelled
	updated, err := svc.Update(ctx, owner, booking.ID, UpdateBookingInput{Status: &cancelled})
	if err != nil {
		t.Fatalf("customer cancel: %v", err)
	}
	if updated.Status != enums.BookingStatusCancelled {
		t.Fatalf("unexpected status: %s", updated.Status)
	}
}

func TestGetByIDDetailTotals(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	vehicle := seedVehicle(t, conn)
	owner := customerActor()

	booking, err := svc.Create(ctx, owner, CreateBookingInput{
		VehicleID: vehicle.ID,
		Date:      time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Complaint: "service 40k",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	part := models.Sparepart{SKU: "OIL-1", Name: "Engine oil", Price: decimal.RequireFromString("120.00"), Stock: 10}
	if err := conn.Create(&part).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	frozen := decimal.RequireFromString("100.00")
	usage := models.SparepartUsage{BookingID: booking.ID, SparepartID: part.ID, Qty: 3, PriceAtUse: &frozen}
	if err := conn.Create(&usage).Error; err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	detail, err := svc.GetByID(ctx, owner, booking.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if len(detail.Usages) != 1 {
		t.Fatalf("expected one usage line, got %d", len(detail.Usages))
	}
	line := detail.Usages[0]
	if line.Name != "Engine oil" || line.Qty != 3 {
		t.Fatalf("unexpected line: %+v", line)
	}
	// Totals use the frozen price, not the current catalogue price.
	if !line.Subtotal.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("unexpected subtotal: %s", line.Subtotal)
	}
	if !detail.PartsTotal.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("unexpected total: %s", detail.PartsTotal)
	}

	stranger := customerActor()
	if _, err := svc.GetByID(ctx, stranger, booking.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatal("expected forbidden for stranger")
	}
}

func TestDeleteGuards(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	vehicle := seedVehicle(t, conn)
	owner := customerActor()

	booking, err := svc.Create(ctx, owner, CreateBookingInput{
		VehicleID: vehicle.ID,
		Date:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Complaint: "ac blows warm",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	part := models.Sparepart{SKU: "GAS-1", Name: "Refrigerant", Price: decimal.RequireFromString("60.00"), Stock: 5}
	if err := conn.Create(&part).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	usage := models.SparepartUsage{BookingID: booking.ID, SparepartID: part.ID, Qty: 1}
	if err := conn.Create(&usage).Error; err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	err = svc.Delete(ctx, owner, booking.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict while usages exist, got %v", err)
	}

	if err := conn.Delete(&usage).Error; err != nil {
		t.Fatalf("clear usage: %v", err)
	}
	if err := svc.Delete(ctx, owner, booking.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := conn.First(&models.Booking{}, "id = ?", booking.ID).Error; err != gorm.ErrRecordNotFound {
		t.Fatalf("expected booking gone, got %v", err)
	}
}
