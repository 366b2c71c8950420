package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/samerhaddad/clubledger-backend/api/responses"
	"github.com/samerhaddad/clubledger-backend/api/validators"
	"github.com/samerhaddad/clubledger-backend/internal/pos"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
	"github.com/samerhaddad/clubledger-backend/pkg/logger"
)

type saleCartLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

type saleRequest struct {
	Cart           []saleCartLine `json:"cart" validate:"required,min=1,dive"`
	DiscountCents  int64          `json:"discount_cents" validate:"gte=0"`
	Mode           string         `json:"mode" validate:"required"`
	PaidCents      int64          `json:"paid_cents" validate:"gte=0"`
	CounterpartyID *uuid.UUID     `json:"counterparty_id,omitempty"`
}

// SaleRecord commits a point-of-sale checkout: stock is decremented and the
// sale lands in the transaction log in one transaction.
func SaleRecord(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pos service unavailable"))
			return
		}

		var req saleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParsePaymentMode(req.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode"))
			return
		}

		cart := make([]pos.CartLine, 0, len(req.Cart))
		for _, line := range req.Cart {
			cart = append(cart, pos.CartLine{ProductID: line.ProductID, Qty: line.Qty})
		}

		txn, err := svc.RecordSale(r.Context(), pos.SaleInput{
			Cart:           cart,
			DiscountCents:  req.DiscountCents,
			Mode:           mode,
			PaidCents:      req.PaidCents,
			CounterpartyID: req.CounterpartyID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithTransactionID(r.Context(), txn.ID.String()), "sale committed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
