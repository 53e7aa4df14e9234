package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agronond/mandi-backend/api/responses"
	"github.com/agronond/mandi-backend/api/validators"
	"github.com/agronond/mandi-backend/internal/transactions"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/pagination"
)

// GetTransaction fetches a settlement snapshot by UUID or TXN- code.
func GetTransaction(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := strings.TrimSpace(chi.URLParam(r, "txnId"))
		if ref == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required"))
			return
		}

		if id, err := uuid.Parse(ref); err == nil {
			txn, err := svc.Get(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, txn)
			return
		}

		txn, err := svc.GetByCode(r.Context(), strings.ToUpper(ref))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

// ListTransactions pages the settlement ledger. Farmers and traders see
// only their own rows.
func ListTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
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
		params := transactions.ListParams{
			PaymentStatus: strings.TrimSpace(query.Get("payment_status")),
			Limit:         limit,
			Cursor:        strings.TrimSpace(query.Get("cursor")),
		}

		for key, dest := range map[string]**time.Time{"from": &params.CreatedFrom, "to": &params.CreatedTo} {
			if raw := strings.TrimSpace(query.Get(key)); raw != "" {
				at, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key+" timestamp"))
					return
				}
				*dest = &at
			}
		}

		switch actor.Role {
		case enums.UserRoleFarmer:
			params.FarmerID = &actor.UserID
		case enums.UserRoleTrader:
			params.TraderID = &actor.UserID
		default:
			if raw := strings.TrimSpace(query.Get("farmer_id")); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid farmer_id"))
					return
				}
				params.FarmerID = &id
			}
			if raw := strings.TrimSpace(query.Get("trader_id")); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid trader_id"))
					return
				}
				params.TraderID = &id
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
