package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agronond/mandi-backend/api/responses"
	"github.com/agronond/mandi-backend/api/validators"
	"github.com/agronond/mandi-backend/internal/lots"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/pagination"
)

// CreateLot registers a produce batch at the market gate. Farmers book
// their own lots; staff may book on a farmer's behalf.
func CreateLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload struct {
			FarmerID     string          `json:"farmer_id"`
			Vegetable    string          `json:"vegetable" validate:"required"`
			EstimatedQty decimal.Decimal `json:"estimated_qty"`
			EstimatedNag int             `json:"estimated_nag"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		farmerID := actor.UserID
		if actor.Role != enums.UserRoleFarmer {
			parsed, err := uuid.Parse(strings.TrimSpace(payload.FarmerID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "farmer_id is required for staff intake"))
				return
			}
			farmerID = parsed
		}

		lot, err := svc.Intake(r.Context(), lots.IntakeInput{
			FarmerID:     farmerID,
			Vegetable:    payload.Vegetable,
			EstimatedQty: payload.EstimatedQty,
			EstimatedNag: payload.EstimatedNag,
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lot)
	}
}

// GetLot fetches a lot by UUID or by its LOT- code.
func GetLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := strings.TrimSpace(chi.URLParam(r, "lotId"))
		if ref == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lot reference is required"))
			return
		}

		if id, err := uuid.Parse(ref); err == nil {
			lot, err := svc.Get(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, lot)
			return
		}

		lot, err := svc.GetByCode(r.Context(), strings.ToUpper(ref))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

// ListLots pages through lots. Farmers and traders see only their own.
func ListLots(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		input := lots.ListInput{
			Status:        strings.TrimSpace(query.Get("status")),
			PaymentStatus: strings.TrimSpace(query.Get("payment_status")),
			Vegetable:     strings.TrimSpace(query.Get("vegetable")),
			Limit:         limit,
			Cursor:        strings.TrimSpace(query.Get("cursor")),
		}

		switch actor.Role {
		case enums.UserRoleFarmer:
			input.FarmerID = &actor.UserID
		case enums.UserRoleTrader:
			input.TraderID = &actor.UserID
		default:
			if raw := strings.TrimSpace(query.Get("farmer_id")); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid farmer_id"))
					return
				}
				input.FarmerID = &id
			}
			if raw := strings.TrimSpace(query.Get("trader_id")); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid trader_id"))
					return
				}
				input.TraderID = &id
			}
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AssignLotRate applies the auction outcome to a lot.
func AssignLotRate(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lotID, err := uuid.Parse(chi.URLParam(r, "lotId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid lot id"))
			return
		}

		var payload struct {
			TraderID string          `json:"trader_id" validate:"required"`
			SaleUnit string          `json:"sale_unit"`
			SaleRate decimal.Decimal `json:"sale_rate" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		traderID, err := uuid.Parse(strings.TrimSpace(payload.TraderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid trader_id"))
			return
		}

		lot, err := svc.AssignRate(r.Context(), lots.AssignRateInput{
			LotID:    lotID,
			TraderID: traderID,
			SaleUnit: payload.SaleUnit,
			SaleRate: payload.SaleRate,
			Actor:    actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

// FinalizeLotWeight records the official weighbridge measurement.
func FinalizeLotWeight(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lotID, err := uuid.Parse(chi.URLParam(r, "lotId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid lot id"))
			return
		}

		var payload struct {
			OfficialQty *decimal.Decimal `json:"official_qty"`
			OfficialNag *int             `json:"official_nag"`
			Carat       *decimal.Decimal `json:"carat"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, err := svc.FinalizeWeight(r.Context(), lots.FinalizeWeightInput{
			LotID:       lotID,
			OfficialQty: payload.OfficialQty,
			OfficialNag: payload.OfficialNag,
			Carat:       payload.Carat,
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

// RecordLotPayment marks one settlement leg of a sold lot as paid.
func RecordLotPayment(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lotID, err := uuid.Parse(chi.URLParam(r, "lotId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid lot id"))
			return
		}

		var payload struct {
			Party     string     `json:"party" validate:"required"`
			Mode      string     `json:"mode" validate:"required"`
			Reference string     `json:"reference"`
			PaidAt    *time.Time `json:"paid_at"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, err := svc.UpdatePayment(r.Context(), lots.UpdatePaymentInput{
			LotID:     lotID,
			Party:     payload.Party,
			Mode:      payload.Mode,
			Reference: payload.Reference,
			PaidAt:    payload.PaidAt,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

// DeleteLot removes an unsold lot from the register.
func DeleteLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lotID, err := uuid.Parse(chi.URLParam(r, "lotId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid lot id"))
			return
		}

		if err := svc.Delete(r.Context(), lotID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
