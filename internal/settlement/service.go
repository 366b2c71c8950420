package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/customers"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/internal/members"
	"github.com/samerhaddad/clubledger-backend/internal/suppliers"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies debt settlements. Member and customer settlements bring
// money in (DebtPayment); supplier settlements pay money out
// (SupplierPayment). The stored balance is floored at zero: overpayment is
// accepted but the residue is not tracked as a credit.
type Service interface {
	Settle(ctx context.Context, role enums.CounterpartyRole, counterpartyID uuid.UUID, amountCents int64) (*models.Transaction, error)
}

type service struct {
	members   members.Repository
	customers customers.Repository
	suppliers suppliers.Repository
	ledger    ledger.Repository
	tx        txRunner
}

// NewService constructs a settlement service instance.
func NewService(memberRepo members.Repository, customerRepo customers.Repository, supplierRepo suppliers.Repository, ledgerRepo ledger.Repository, tx txRunner) (Service, error) {
	if memberRepo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if supplierRepo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		members:   memberRepo,
		customers: customerRepo,
		suppliers: supplierRepo,
		ledger:    ledgerRepo,
		tx:        tx,
	}, nil
}

// Settle reduces the counterparty's stored debt and appends the matching
// transaction in one unit.
func (s *service) Settle(ctx context.Context, role enums.CounterpartyRole, counterpartyID uuid.UUID, amountCents int64) (*models.Transaction, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "settlement amount must be positive")
	}
	if counterpartyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counterparty id is required")
	}
	if role == enums.CounterpartyRoleEmployee {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee balances settle through payroll, not debt settlement")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid counterparty role %q", role))
	}

	var committed *models.Transaction
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn := &models.Transaction{AmountCents: amountCents}

		switch role {
		case enums.CounterpartyRoleMember:
			member, err := s.members.WithTx(tx).FindByID(ctx, counterpartyID)
			if err != nil {
				return notFoundOrDependency(err, "member")
			}
			if err := s.members.WithTx(tx).SetDebt(ctx, member.ID, clamp(member.TotalDebtCents-amountCents)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set member debt")
			}
			txn.Kind = enums.TransactionKindDebtPayment
			txn.MemberID = &member.ID
			txn.Label = "Debt payment - " + member.Name

		case enums.CounterpartyRoleCustomer:
			customer, err := s.customers.WithTx(tx).FindByID(ctx, counterpartyID)
			if err != nil {
				return notFoundOrDependency(err, "customer")
			}
			if err := s.customers.WithTx(tx).SetDebt(ctx, customer.ID, clamp(customer.TotalDebtCents-amountCents)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set customer debt")
			}
			txn.Kind = enums.TransactionKindDebtPayment
			txn.CustomerID = &customer.ID
			txn.Label = "Debt payment - " + customer.Name

		case enums.CounterpartyRoleSupplier:
			supplier, err := s.suppliers.WithTx(tx).FindByID(ctx, counterpartyID)
			if err != nil {
				return notFoundOrDependency(err, "supplier")
			}
			if err := s.suppliers.WithTx(tx).SetDebt(ctx, supplier.ID, clamp(supplier.TotalDebtCents-amountCents)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set supplier debt")
			}
			txn.Kind = enums.TransactionKindSupplierPayment
			txn.SupplierID = &supplier.ID
			txn.Label = "Supplier payment - " + supplier.Name
		}

		if err := s.ledger.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
		}
		committed = txn
		return nil
	}); err != nil {
		return nil, err
	}

	return committed, nil
}

func clamp(debtCents int64) int64 {
	if debtCents < 0 {
		return 0
	}
	return debtCents
}

func notFoundOrDependency(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
