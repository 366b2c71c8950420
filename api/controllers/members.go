package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/samerhaddad/clubledger-backend/api/responses"
	"github.com/samerhaddad/clubledger-backend/api/validators"
	"github.com/samerhaddad/clubledger-backend/internal/members"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
	"github.com/samerhaddad/clubledger-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

type memberRegisterRequest struct {
	MemberID      *uuid.UUID `json:"member_id,omitempty"`
	Name          string     `json:"name,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Plan          string     `json:"plan" validate:"required"`
	PlanMonths    int        `json:"plan_months" validate:"required,min=1"`
	PriceCents    int64      `json:"price_cents" validate:"gte=0"`
	DiscountCents int64      `json:"discount_cents" validate:"gte=0"`
	StartDate     string     `json:"start_date" validate:"required"`
	Mode          string     `json:"mode" validate:"required"`
	PaidCents     int64      `json:"paid_cents" validate:"gte=0"`
}

type memberUpdateRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Phone      *string `json:"phone,omitempty"`
	Plan       *string `json:"plan,omitempty" validate:"omitempty,min=1"`
	PlanMonths *int    `json:"plan_months,omitempty" validate:"omitempty,min=1"`
	StartDate  *string `json:"start_date,omitempty"`
}

type memberStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MemberRegister handles new registrations and renewals. A request carrying
// member_id renews that member, anything else registers a new one.
func MemberRegister(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		var req memberRegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParsePaymentMode(req.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode"))
			return
		}

		startDate, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start date"))
			return
		}

		result, err := svc.RegisterOrRenew(r.Context(), members.RegisterInput{
			MemberID:      req.MemberID,
			Name:          req.Name,
			Phone:         req.Phone,
			Plan:          req.Plan,
			PlanMonths:    req.PlanMonths,
			PriceCents:    req.PriceCents,
			DiscountCents: req.DiscountCents,
			StartDate:     startDate,
			Mode:          mode,
			PaidCents:     req.PaidCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil && result.Transaction != nil {
			logg.Info(logg.WithTransactionID(r.Context(), result.Transaction.ID.String()), "membership payment committed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// MemberUpdate applies an edit-only change: no transaction is recorded and
// the member's debt is left alone.
func MemberUpdate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id"))
			return
		}

		var req memberUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := members.UpdateInput{
			Name:       req.Name,
			Phone:      req.Phone,
			Plan:       req.Plan,
			PlanMonths: req.PlanMonths,
		}
		if req.StartDate != nil {
			startDate, err := time.Parse(dateLayout, *req.StartDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start date"))
				return
			}
			input.StartDate = &startDate
		}

		member, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

// MemberSetStatus toggles a member between active and frozen.
func MemberSetStatus(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id"))
			return
		}

		var req memberStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseMemberStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member status"))
			return
		}

		member, err := svc.SetStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

func MemberDelete(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func MemberGet(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id"))
			return
		}

		member, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

func MemberList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
