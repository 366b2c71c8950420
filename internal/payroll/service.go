package payroll

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/employees"
	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service pays employees. Both advances and salary payments draw against the
// derived available balance; a payment above that balance is rejected.
type Service interface {
	Pay(ctx context.Context, input PayInput) (*models.Transaction, error)
}

// PayInput carries one payroll payment tagged with its period.
type PayInput struct {
	EmployeeID  uuid.UUID
	Kind        enums.TransactionKind
	AmountCents int64
	PeriodMonth int
	PeriodYear  int
}

type service struct {
	employees employees.Repository
	ledger    ledger.Repository
	resolver  identity.Resolver
	tx        txRunner
}

// NewService constructs a payroll service instance.
func NewService(employeeRepo employees.Repository, ledgerRepo ledger.Repository, resolver identity.Resolver, tx txRunner) (Service, error) {
	if employeeRepo == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		employees: employeeRepo,
		ledger:    ledgerRepo,
		resolver:  resolver,
		tx:        tx,
	}, nil
}

// Pay validates the payment against the derived balance and appends it. The
// balance is derived inside the same transaction that inserts the payment:
// touching the employee row first serializes concurrent payments against the
// same employee, so two payments cannot both pass the guard on a stale read.
func (s *service) Pay(ctx context.Context, input PayInput) (*models.Transaction, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "payment amount must be positive")
	}
	if !input.Kind.IsPayroll() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("kind %q is not a payroll kind", input.Kind))
	}
	if input.PeriodMonth < 1 || input.PeriodMonth > 12 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period month must be between 1 and 12")
	}
	if input.PeriodYear < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period year is required")
	}

	month := input.PeriodMonth
	year := input.PeriodYear

	var committed *models.Transaction
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		employeeRepo := s.employees.WithTx(tx)

		locked, err := employeeRepo.Touch(ctx, input.EmployeeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock employee")
		}
		if !locked {
			return pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		employee, err := employeeRepo.FindByID(ctx, input.EmployeeID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load employee")
		}

		ledgerRepo := s.ledger.WithTx(tx)
		drawn, err := ledgerRepo.SumPayrollForEmployee(ctx, employee.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum payroll")
		}
		linked, err := s.resolver.WithTx(tx).LinkedExternalDebt(ctx, employee)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum linked debt")
		}
		available := employee.SalaryCents - drawn - linked
		if input.AmountCents > available {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "payment exceeds the employee's available balance").
				WithDetails(map[string]any{"available_cents": available})
		}

		txn := &models.Transaction{
			Kind:        input.Kind,
			AmountCents: input.AmountCents,
			Label:       fmt.Sprintf("%s - %s (%02d/%d)", payrollLabel(input.Kind), employee.Name, month, year),
			EmployeeID:  &employee.ID,
			PeriodMonth: &month,
			PeriodYear:  &year,
		}
		if err := ledgerRepo.Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
		}
		committed = txn
		return nil
	}); err != nil {
		return nil, err
	}

	return committed, nil
}

func payrollLabel(kind enums.TransactionKind) string {
	if kind == enums.TransactionKindAdvance {
		return "Advance"
	}
	return "Salary payment"
}
