package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garagedesk/workshop-backend/pkg/db"
	"github.com/garagedesk/workshop-backend/pkg/db/models"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"gorm.io/gorm"
)

type vehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	FindByID(ctx context.Context, id int64) (*models.Vehicle, error)
	List(ctx context.Context) ([]models.Vehicle, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]models.Vehicle, error)
	Save(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id int64) error
	CustomerExists(ctx context.Context, customerID int64) (bool, error)
	CountBookings(ctx context.Context, vehicleID int64) (int64, error)
}

// Service exposes vehicle CRUD operations.
type Service interface {
	Create(ctx context.Context, input CreateVehicleInput) (*VehicleDTO, error)
	GetByID(ctx context.Context, id int64) (*VehicleDTO, error)
	List(ctx context.Context, customerID *int64) ([]VehicleDTO, error)
	Update(ctx context.Context, id int64, input UpdateVehicleInput) (*VehicleDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo vehicleRepository
}

// NewService builds a vehicle service with the provided repository.
func NewService(repo vehicleRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicle repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateVehicleInput) (*VehicleDTO, error) {
	exists, err := s.repo.CustomerExists(ctx, input.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	vehicle := &models.Vehicle{
		CustomerID: input.CustomerID,
		Brand:      strings.TrimSpace(input.Brand),
		Model:      strings.TrimSpace(input.Model),
		Year:       input.Year,
		PlateNo:    normalizePlate(input.PlateNo),
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "plate number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vehicle")
	}
	return FromModel(vehicle), nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*VehicleDTO, error) {
	vehicle, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(vehicle), nil
}

func (s *service) List(ctx context.Context, customerID *int64) ([]VehicleDTO, error) {
	var (
		vehicles []models.Vehicle
		err      error
	)
	if customerID != nil {
		vehicles, err = s.repo.ListByCustomer(ctx, *customerID)
	} else {
		vehicles, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}

	dtos := make([]VehicleDTO, 0, len(vehicles))
	for i := range vehicles {
		dtos = append(dtos, *FromModel(&vehicles[i]))
	}
	return dtos, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateVehicleInput) (*VehicleDTO, error) {
	vehicle, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Brand != nil {
		vehicle.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Model != nil {
		vehicle.Model = strings.TrimSpace(*input.Model)
	}
	if input.Year != nil {
		vehicle.Year = *input.Year
	}
	if input.PlateNo != nil {
		vehicle.PlateNo = normalizePlate(*input.PlateNo)
	}

	if err := s.repo.Save(ctx, vehicle); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "plate number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vehicle")
	}
	return FromModel(vehicle), nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	bookings, err := s.repo.CountBookings(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count bookings")
	}
	if bookings > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle still has bookings on record")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vehicle")
	}
	return nil
}

func (s *service) find(ctx context.Context, id int64) (*models.Vehicle, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}
	return vehicle, nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), " "))
}
