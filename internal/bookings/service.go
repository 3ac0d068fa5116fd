package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garagedesk/workshop-backend/internal/ledger"
	"github.com/garagedesk/workshop-backend/pkg/db/models"
	"github.com/garagedesk/workshop-backend/pkg/enums"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	List(ctx context.Context) ([]models.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	Save(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id int64) error
	ListUsages(ctx context.Context, bookingID int64) ([]models.SparepartUsage, error)
	CountUsages(ctx context.Context, bookingID int64) (int64, error)
	VehicleExists(ctx context.Context, vehicleID int64) (bool, error)
}

// Service exposes booking operations scoped by the calling actor.
type Service interface {
	Create(ctx context.Context, actor ledger.Actor, input CreateBookingInput) (*BookingDTO, error)
	GetByID(ctx context.Context, actor ledger.Actor, id int64) (*BookingDetailDTO, error)
	List(ctx context.Context, actor ledger.Actor) ([]BookingDTO, error)
	Update(ctx context.Context, actor ledger.Actor, id int64, input UpdateBookingInput) (*BookingDTO, error)
	Delete(ctx context.Context, actor ledger.Actor, id int64) error
}

type service struct {
	repo bookingRepository
}

// NewService builds a booking service with the provided repository.
func NewService(repo bookingRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	return &service{repo: repo}, nil
}

// allowedTransitions maps each status to the states it may move into.
var allowedTransitions = map[enums.BookingStatus][]enums.BookingStatus{
	enums.BookingStatusPending:    {enums.BookingStatusInProgress, enums.BookingStatusCancelled},
	enums.BookingStatusInProgress: {enums.BookingStatusCompleted, enums.BookingStatusCancelled},
	enums.BookingStatusCompleted:  {},
	enums.BookingStatusCancelled:  {},
}

func canTransition(from, to enums.BookingStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func isStaff(actor ledger.Actor) bool {
	return actor.Role == enums.UserRoleAdmin || actor.Role == enums.UserRoleMechanic
}

func canViewBooking(actor ledger.Actor, booking *models.Booking) bool {
	return isStaff(actor) || booking.UserID == actor.UserID
}

func (s *service) Create(ctx context.Context, actor ledger.Actor, input CreateBookingInput) (*BookingDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	exists, err := s.repo.VehicleExists(ctx, input.VehicleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check vehicle")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}

	// Only admins can book on behalf of another user.
	userID := actor.UserID
	if input.UserID != nil && *input.UserID != actor.UserID {
		if actor.Role != enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot book for another user")
		}
		userID = *input.UserID
	}

	booking := &models.Booking{
		VehicleID: input.VehicleID,
		UserID:    userID,
		Date:      input.Date,
		Complaint: strings.TrimSpace(input.Complaint),
		Status:    enums.BookingStatusPending,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	return FromModel(booking), nil
}

func (s *service) GetByID(ctx context.Context, actor ledger.Actor, id int64) (*BookingDetailDTO, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewBooking(actor, booking) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
	}

	usages, err := s.repo.ListUsages(ctx, booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usages")
	}

	detail := &BookingDetailDTO{
		BookingDTO: *FromModel(booking),
		Usages:     make([]UsageLineDTO, 0, len(usages)),
	}
	for i := range usages {
		line := usageLineFromModel(&usages[i])
		detail.Usages = append(detail.Usages, line)
		detail.PartsTotal = detail.PartsTotal.Add(line.Subtotal)
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, actor ledger.Actor) ([]BookingDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var (
		bookings []models.Booking
		err      error
	)
	if isStaff(actor) {
		bookings, err = s.repo.List(ctx)
	} else {
		bookings, err = s.repo.ListByUser(ctx, actor.UserID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}

	dtos := make([]BookingDTO, 0, len(bookings))
	for i := range bookings {
		dtos = append(dtos, *FromModel(&bookings[i]))
	}
	return dtos, nil
}

func (s *service) Update(ctx context.Context, actor ledger.Actor, id int64, input UpdateBookingInput) (*BookingDTO, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewBooking(actor, booking) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
	}

	// Customers may only reshape their own booking while it is pending.
	if !isStaff(actor) {
		if booking.Status != enums.BookingStatusPending {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking can no longer be edited")
		}
		if input.Status != nil && *input.Status != enums.BookingStatusCancelled {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers can only cancel a booking")
		}
	}

	if input.Date != nil {
		booking.Date = *input.Date
	}
	if input.Complaint != nil {
		booking.Complaint = strings.TrimSpace(*input.Complaint)
	}
	if input.MechanicID != nil && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "mechanic assignment requires admin role")
	}
	if input.MechanicID != nil {
		booking.MechanicID = input.MechanicID
	}
	if input.Status != nil && *input.Status != booking.Status {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", *input.Status))
		}
		if !canTransition(booking.Status, *input.Status) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move booking from %s to %s", booking.Status, *input.Status))
		}
		booking.Status = *input.Status
	}

	if err := s.repo.Save(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	return FromModel(booking), nil
}

func (s *service) Delete(ctx context.Context, actor ledger.Actor, id int64) error {
	booking, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != enums.UserRoleAdmin {
		if booking.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking does not belong to user")
		}
		if booking.Status != enums.BookingStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending bookings can be deleted")
		}
	}

	usages, err := s.repo.CountUsages(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count usages")
	}
	if usages > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "remove sparepart usages before deleting the booking")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete booking")
	}
	return nil
}

func (s *service) find(ctx context.Context, id int64) (*models.Booking, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}
