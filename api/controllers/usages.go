package controllers

import (
	"net/http"

	"github.com/garagedesk/workshop-backend/api/middleware"
	"github.com/garagedesk/workshop-backend/api/responses"
	"github.com/garagedesk/workshop-backend/api/validators"
	"github.com/garagedesk/workshop-backend/internal/ledger"
	pkgerrors "github.com/garagedesk/workshop-backend/pkg/errors"
	"github.com/garagedesk/workshop-backend/pkg/logger"
)

type applyUsageRequest struct {
	SparepartID int64 `json:"sparepart_id" validate:"required"`
	Qty         int   `json:"qty" validate:"required,gte=1"`
}

// UsageApply records parts consumed on a booking and decrements stock.
func UsageApply(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		bookingID, err := validators.ParseIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body applyUsageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		usage, err := svc.ApplyUsage(r.Context(), middleware.ActorFromContext(r.Context()), ledger.ApplyUsageInput{
			BookingID:   bookingID,
			SparepartID: body.SparepartID,
			Qty:         body.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ledger.UsageFromModel(usage))
	}
}

// UsageRemove returns a usage line's quantity to stock and deletes the line.
func UsageRemove(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		usageID, err := validators.ParseIDParam(r, "usageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveUsage(r.Context(), middleware.ActorFromContext(r.Context()), usageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
