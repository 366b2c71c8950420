package purchasing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/inventory"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/internal/suppliers"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records purchase orders. Purchases are the only path that increases
// stock. A correction re-prices an existing purchase without moving stock.
type Service interface {
	RecordPurchase(ctx context.Context, input PurchaseInput) (*models.Transaction, error)
}

// PurchaseLine is one product position in a purchase order.
type PurchaseLine struct {
	ProductID     uuid.UUID
	Qty           int
	UnitCostCents int64
}

// PurchaseInput carries a purchase order. EditID set means a money correction
// of an earlier purchase: the transaction row is rewritten and the supplier
// debt adjusted by the difference, stock stays untouched.
type PurchaseInput struct {
	Cart          []PurchaseLine
	DiscountCents int64
	Mode          enums.PaymentMode
	PaidCents     int64
	SupplierID    *uuid.UUID
	EditID        *uuid.UUID
	Label         string
}

type service struct {
	products  inventory.Repository
	suppliers suppliers.Repository
	ledger    ledger.Repository
	tx        txRunner
}

// NewService constructs a purchasing service instance.
func NewService(products inventory.Repository, supplierRepo suppliers.Repository, ledgerRepo ledger.Repository, tx txRunner) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
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
		products:  products,
		suppliers: supplierRepo,
		ledger:    ledgerRepo,
		tx:        tx,
	}, nil
}

// RecordPurchase validates and commits a purchase order or correction.
func (s *service) RecordPurchase(ctx context.Context, input PurchaseInput) (*models.Transaction, error) {
	if len(input.Cart) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	var subtotal int64
	for _, line := range input.Cart {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line product id is required")
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line qty must be positive")
		}
		if line.UnitCostCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost must be non-negative")
		}
		subtotal += int64(line.Qty) * line.UnitCostCents
	}
	if input.Mode == enums.PaymentModeCredit && input.SupplierID == nil && input.EditID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMissingCounterparty, "credit purchase requires a supplier")
	}

	paid, debt, err := ledger.SettleInvoice(subtotal, input.DiscountCents, input.Mode, input.PaidCents)
	if err != nil {
		return nil, err
	}

	label := input.Label
	if label == "" {
		label = fmt.Sprintf("Purchase: %d positions", len(input.Cart))
	}

	var committed *models.Transaction
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledgerRepo := s.ledger.WithTx(tx)
		supplierRepo := s.suppliers.WithTx(tx)

		if input.EditID != nil {
			return s.correct(ctx, tx, input, *input.EditID, paid, debt, label, &committed)
		}

		txn := &models.Transaction{
			Kind:           enums.TransactionKindPurchase,
			AmountCents:    paid,
			DiscountCents:  input.DiscountCents,
			DebtAddedCents: debt,
			Label:          label,
			SupplierID:     input.SupplierID,
		}
		if err := ledgerRepo.Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
		}

		if debt > 0 && input.SupplierID != nil {
			if err := supplierRepo.AddDebt(ctx, *input.SupplierID, debt); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add supplier debt")
			}
		}

		productRepo := s.products.WithTx(tx)
		for _, line := range input.Cart {
			ok, err := productRepo.AdjustStock(ctx, line.ProductID, line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
			}
		}

		committed = txn
		return nil
	}); err != nil {
		return nil, err
	}

	return committed, nil
}

// correct rewrites an earlier purchase transaction with new money figures and
// moves the supplier balance by the debt difference.
func (s *service) correct(ctx context.Context, tx *gorm.DB, input PurchaseInput, editID uuid.UUID, paid, debt int64, label string, committed **models.Transaction) error {
	ledgerRepo := s.ledger.WithTx(tx)

	existing, err := ledgerRepo.FindByID(ctx, editID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase transaction not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load transaction")
	}
	if existing.Kind != enums.TransactionKindPurchase {
		return pkgerrors.New(pkgerrors.CodeValidation, "only purchase transactions can be corrected")
	}

	if input.SupplierID != nil && (existing.SupplierID == nil || *existing.SupplierID != *input.SupplierID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "a correction cannot move the purchase to another supplier")
	}
	if debt > 0 && existing.SupplierID == nil {
		return pkgerrors.New(pkgerrors.CodeMissingCounterparty, "credit correction requires a supplier on the purchase")
	}

	debtDelta := debt - existing.DebtAddedCents

	existing.AmountCents = paid
	existing.DiscountCents = input.DiscountCents
	existing.DebtAddedCents = debt
	existing.Label = label
	if err := ledgerRepo.Update(ctx, existing); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update transaction")
	}

	if existing.SupplierID != nil && debtDelta != 0 {
		if err := s.suppliers.WithTx(tx).AddDebt(ctx, *existing.SupplierID, debtDelta); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeConsistency, "supplier balance cannot absorb the correction")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: adjust supplier debt")
		}
	}

	*committed = existing
	return nil
}
