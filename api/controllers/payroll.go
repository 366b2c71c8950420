package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/samerhaddad/clubledger-backend/api/responses"
	"github.com/samerhaddad/clubledger-backend/api/validators"
	"github.com/samerhaddad/clubledger-backend/internal/payroll"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
	"github.com/samerhaddad/clubledger-backend/pkg/logger"
)

type payrollRequest struct {
	EmployeeID  uuid.UUID `json:"employee_id" validate:"required"`
	Kind        string    `json:"kind" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"required"`
	PeriodMonth int       `json:"period_month" validate:"required,min=1,max=12"`
	PeriodYear  int       `json:"period_year" validate:"required,min=2000"`
}

// PayrollPay records a salary payment or an advance for a pay period,
// guarded by the employee's derived balance.
func PayrollPay(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		var req payrollRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseTransactionKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payroll kind"))
			return
		}

		txn, err := svc.Pay(r.Context(), payroll.PayInput{
			EmployeeID:  req.EmployeeID,
			Kind:        kind,
			AmountCents: req.AmountCents,
			PeriodMonth: req.PeriodMonth,
			PeriodYear:  req.PeriodYear,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithTransactionID(r.Context(), txn.ID.String()), "payroll payment committed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
