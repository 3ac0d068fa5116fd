package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garagedesk/workshop-backend/api/controllers"
	"github.com/garagedesk/workshop-backend/api/middleware"
	"github.com/garagedesk/workshop-backend/internal/auth"
	"github.com/garagedesk/workshop-backend/internal/bookings"
	"github.com/garagedesk/workshop-backend/internal/customers"
	"github.com/garagedesk/workshop-backend/internal/ledger"
	"github.com/garagedesk/workshop-backend/internal/spareparts"
	"github.com/garagedesk/workshop-backend/internal/vehicles"
	"github.com/garagedesk/workshop-backend/pkg/auth/session"
	"github.com/garagedesk/workshop-backend/pkg/config"
	"github.com/garagedesk/workshop-backend/pkg/logger"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Database       controllers.Pinger
	Cache          controllers.Pinger
	SessionManager session.AccessSessionChecker
	Registry       *prometheus.Registry

	AuthService      auth.Service
	CustomerService  customers.Service
	VehicleService   vehicles.Service
	SparepartService spareparts.Service
	BookingService   bookings.Service
	LedgerService    ledger.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Database, deps.Cache))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.SessionManager, logg)).
			Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		staffOnly := middleware.RequireRole(logg, "admin", "mechanic")
		adminOnly := middleware.RequireRole(logg, "admin")

		r.Route("/customers", func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/", controllers.CustomerList(deps.CustomerService, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(deps.CustomerService, logg))
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", controllers.CustomerCreate(deps.CustomerService, logg))
				r.Put("/{customerId}", controllers.CustomerUpdate(deps.CustomerService, logg))
				r.Delete("/{customerId}", controllers.CustomerDelete(deps.CustomerService, logg))
			})
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/", controllers.VehicleList(deps.VehicleService, logg))
			r.Get("/{vehicleId}", controllers.VehicleDetail(deps.VehicleService, logg))
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", controllers.VehicleCreate(deps.VehicleService, logg))
				r.Put("/{vehicleId}", controllers.VehicleUpdate(deps.VehicleService, logg))
				r.Delete("/{vehicleId}", controllers.VehicleDelete(deps.VehicleService, logg))
			})
		})

		r.Route("/spareparts", func(r chi.Router) {
			r.Get("/", controllers.SparepartList(deps.SparepartService, logg))
			r.Get("/{sparepartId}", controllers.SparepartDetail(deps.SparepartService, logg))
			r.With(staffOnly).
				Get("/{sparepartId}/mutations", controllers.SparepartMutations(deps.LedgerService, logg))
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", controllers.SparepartCreate(deps.SparepartService, logg))
				r.Put("/{sparepartId}", controllers.SparepartUpdate(deps.SparepartService, logg))
				r.Post("/{sparepartId}/restock", controllers.SparepartRestock(deps.SparepartService, logg))
				r.Delete("/{sparepartId}", controllers.SparepartDelete(deps.SparepartService, logg))
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.BookingList(deps.BookingService, logg))
			r.Post("/", controllers.BookingCreate(deps.BookingService, logg))
			r.Get("/{bookingId}", controllers.BookingDetail(deps.BookingService, logg))
			r.Put("/{bookingId}", controllers.BookingUpdate(deps.BookingService, logg))
			r.Delete("/{bookingId}", controllers.BookingDelete(deps.BookingService, logg))
			r.Post("/{bookingId}/spareparts", controllers.UsageApply(deps.LedgerService, logg))
		})

		r.Delete("/sparepart-usages/{usageId}", controllers.UsageRemove(deps.LedgerService, logg))
	})

	return r
}
