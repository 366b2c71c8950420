package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/samerhaddad/clubledger-backend/api/responses"
	"github.com/samerhaddad/clubledger-backend/api/validators"
	"github.com/samerhaddad/clubledger-backend/internal/settlement"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
	"github.com/samerhaddad/clubledger-backend/pkg/logger"
)

type settlementRequest struct {
	Role           string    `json:"role" validate:"required"`
	CounterpartyID uuid.UUID `json:"counterparty_id" validate:"required"`
	AmountCents    int64     `json:"amount_cents" validate:"required"`
}

// SettlementCreate records a debt payment against a member or customer, or a
// payout toward a supplier balance.
func SettlementCreate(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		var req settlementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseCounterpartyRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid counterparty role"))
			return
		}

		txn, err := svc.Settle(r.Context(), role, req.CounterpartyID, req.AmountCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithCounterparty(r.Context(), string(role), req.CounterpartyID.String())
			logg.Info(logg.WithTransactionID(ctx, txn.ID.String()), "debt settled")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
