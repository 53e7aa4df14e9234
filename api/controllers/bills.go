package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agronond/mandi-backend/api/responses"
	"github.com/agronond/mandi-backend/api/validators"
	"github.com/agronond/mandi-backend/internal/bills"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/pagination"
)

// GetBill fetches a bill by UUID or FB-/TB- code.
func GetBill(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := strings.TrimSpace(chi.URLParam(r, "billId"))
		if ref == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "bill reference is required"))
			return
		}

		if id, err := uuid.Parse(ref); err == nil {
			bill, err := svc.Get(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, bill)
			return
		}

		bill, err := svc.GetByCode(r.Context(), strings.ToUpper(ref))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

// ListBills pages through bills. Farmers and traders see only bills
// addressed to them.
func ListBills(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
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
		params := bills.ListParams{
			Party:         strings.TrimSpace(query.Get("party")),
			PaymentStatus: strings.TrimSpace(query.Get("payment_status")),
			Limit:         limit,
			Cursor:        strings.TrimSpace(query.Get("cursor")),
		}

		switch actor.Role {
		case enums.UserRoleFarmer, enums.UserRoleTrader:
			params.PartyUserID = &actor.UserID
		default:
			if raw := strings.TrimSpace(query.Get("party_user_id")); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid party_user_id"))
					return
				}
				params.PartyUserID = &id
			}
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListLotBills returns the farmer and trader bills for one lot.
func ListLotBills(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lotID, err := uuid.Parse(chi.URLParam(r, "lotId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid lot id"))
			return
		}

		items, err := svc.ListForLot(r.Context(), lotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
