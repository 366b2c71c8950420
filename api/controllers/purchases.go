package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/samerhaddad/clubledger-backend/api/responses"
	"github.com/samerhaddad/clubledger-backend/api/validators"
	"github.com/samerhaddad/clubledger-backend/internal/purchasing"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
	"github.com/samerhaddad/clubledger-backend/pkg/logger"
)

type purchaseLine struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	Qty           int       `json:"qty" validate:"required,min=1"`
	UnitCostCents int64     `json:"unit_cost_cents" validate:"gte=0"`
}

type purchaseRequest struct {
	Cart          []purchaseLine `json:"cart" validate:"required,min=1,dive"`
	DiscountCents int64          `json:"discount_cents" validate:"gte=0"`
	Mode          string         `json:"mode" validate:"required"`
	PaidCents     int64          `json:"paid_cents" validate:"gte=0"`
	SupplierID    *uuid.UUID     `json:"supplier_id,omitempty"`
	EditID        *uuid.UUID     `json:"edit_id,omitempty"`
	Label         string         `json:"label,omitempty"`
}

// PurchaseRecord commits a stock purchase. A request carrying edit_id
// re-prices an earlier purchase instead: money and supplier debt are
// adjusted, stock stays as received.
func PurchaseRecord(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}

		var req purchaseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParsePaymentMode(req.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode"))
			return
		}

		cart := make([]purchasing.PurchaseLine, 0, len(req.Cart))
		for _, line := range req.Cart {
			cart = append(cart, purchasing.PurchaseLine{
				ProductID:     line.ProductID,
				Qty:           line.Qty,
				UnitCostCents: line.UnitCostCents,
			})
		}

		txn, err := svc.RecordPurchase(r.Context(), purchasing.PurchaseInput{
			Cart:          cart,
			DiscountCents: req.DiscountCents,
			Mode:          mode,
			PaidCents:     req.PaidCents,
			SupplierID:    req.SupplierID,
			EditID:        req.EditID,
			Label:         req.Label,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if req.EditID != nil {
			status = http.StatusOK
		}
		if logg != nil {
			logg.Info(logg.WithTransactionID(r.Context(), txn.ID.String()), "purchase committed")
		}
		responses.WriteSuccessStatus(w, status, txn)
	}
}
