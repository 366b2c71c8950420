package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/customers"
	"github.com/samerhaddad/clubledger-backend/internal/employees"
	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/internal/inventory"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/internal/members"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records point-of-sale transactions. A sale is all-or-nothing: the
// transaction row, the counterparty debt, and every stock decrement commit as
// one unit or not at all.
type Service interface {
	RecordSale(ctx context.Context, input SaleInput) (*models.Transaction, error)
}

// CartLine is one product position in a sale.
type CartLine struct {
	ProductID uuid.UUID
	Qty       int
}

// SaleInput carries a point-of-sale request. CounterpartyID is required when
// the sale leaves debt behind.
type SaleInput struct {
	Cart           []CartLine
	DiscountCents  int64
	Mode           enums.PaymentMode
	PaidCents      int64
	CounterpartyID *uuid.UUID
}

type service struct {
	products  inventory.Repository
	members   members.Repository
	customers customers.Repository
	employees employees.Repository
	ledger    ledger.Repository
	resolver  identity.Resolver
	tx        txRunner
}

// NewService constructs a point-of-sale service instance.
func NewService(products inventory.Repository, memberRepo members.Repository, customerRepo customers.Repository, employeeRepo employees.Repository, ledgerRepo ledger.Repository, resolver identity.Resolver, tx txRunner) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if memberRepo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
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
		products:  products,
		members:   memberRepo,
		customers: customerRepo,
		employees: employeeRepo,
		ledger:    ledgerRepo,
		resolver:  resolver,
		tx:        tx,
	}, nil
}

// RecordSale validates and commits a sale.
func (s *service) RecordSale(ctx context.Context, input SaleInput) (*models.Transaction, error) {
	if len(input.Cart) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Cart))
	ids := make([]uuid.UUID, 0, len(input.Cart))
	for _, line := range input.Cart {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line product id is required")
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line qty must be positive")
		}
		if _, ok := seen[line.ProductID]; ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in cart")
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	if input.Mode == enums.PaymentModeCredit && input.CounterpartyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMissingCounterparty, "credit sale requires a counterparty")
	}

	var committed *models.Transaction
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)
		resolver := s.resolver.WithTx(tx)

		loaded, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(loaded))
		for _, product := range loaded {
			byID[product.ID] = product
		}

		var subtotal int64
		var short []string
		names := make([]string, 0, len(input.Cart))
		for _, line := range input.Cart {
			product, ok := byID[line.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
			}
			if product.Quantity < line.Qty {
				short = append(short, product.Name)
				continue
			}
			subtotal += int64(line.Qty) * product.SalePriceCents
			names = append(names, fmt.Sprintf("%dx %s", line.Qty, product.Name))
		}
		if len(short) > 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
				WithDetails(map[string]any{"products": short})
		}

		paid, debt, err := ledger.SettleInvoice(subtotal, input.DiscountCents, input.Mode, input.PaidCents)
		if err != nil {
			return err
		}

		txn := &models.Transaction{
			Kind:           enums.TransactionKindSale,
			AmountCents:    paid,
			DiscountCents:  input.DiscountCents,
			DebtAddedCents: debt,
			Label:          "Sale: " + strings.Join(names, ", "),
		}

		if input.CounterpartyID != nil {
			role, err := resolver.ResolveRole(ctx, *input.CounterpartyID)
			if err != nil {
				return err
			}
			if err := s.applyCounterparty(ctx, tx, txn, role, *input.CounterpartyID, debt); err != nil {
				return err
			}
		} else if debt > 0 {
			return pkgerrors.New(pkgerrors.CodeMissingCounterparty, "sale leaves debt but has no counterparty")
		}

		if err := ledgerRepo.Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
		}

		for _, line := range input.Cart {
			ok, err := productRepo.AdjustStock(ctx, line.ProductID, -line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}
			if !ok {
				// lost the race to another sale; roll the whole unit back
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
					WithDetails(map[string]any{"products": []string{byID[line.ProductID].Name}})
			}
		}

		committed = txn
		return nil
	}); err != nil {
		return nil, err
	}

	return committed, nil
}

// applyCounterparty links the transaction to the resolved counterparty and
// books residual debt against the right store. Employee debt has no stored
// column; it lands on a customer row sharing the employee's identity so the
// derived employee balance picks it up.
func (s *service) applyCounterparty(ctx context.Context, tx *gorm.DB, txn *models.Transaction, role enums.CounterpartyRole, id uuid.UUID, debt int64) error {
	switch role {
	case enums.CounterpartyRoleMember:
		txn.MemberID = &id
		if debt > 0 {
			if err := s.members.WithTx(tx).AddDebt(ctx, id, debt); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add member debt")
			}
		}
	case enums.CounterpartyRoleCustomer:
		txn.CustomerID = &id
		if debt > 0 {
			if err := s.customers.WithTx(tx).AddDebt(ctx, id, debt); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add customer debt")
			}
		}
	case enums.CounterpartyRoleEmployee:
		txn.EmployeeID = &id
		if debt > 0 {
			employee, err := s.employees.WithTx(tx).FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load employee")
			}
			customerRepo := s.customers.WithTx(tx)
			linked, err := customerRepo.FindByIdentity(ctx, employee.Name, employee.Phone)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find linked customer")
			}
			if linked == nil {
				linked = &models.Customer{Name: employee.Name, Phone: employee.Phone}
				if err := customerRepo.Create(ctx, linked); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert linked customer")
				}
			}
			if err := customerRepo.AddDebt(ctx, linked.ID, debt); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add linked customer debt")
			}
		}
	case enums.CounterpartyRoleSupplier:
		return pkgerrors.New(pkgerrors.CodeValidation, "a supplier cannot be the counterparty of a sale")
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown counterparty role %q", role))
	}
	return nil
}
