package expenses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records operating expenses and personal withdrawals. Expenses are
// the only transaction kind a user can edit or delete outright, since they
// carry no debt or stock side effects to reverse.
type Service interface {
	RecordExpense(ctx context.Context, input ExpenseInput) (*models.Transaction, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, input ExpenseInput) (*models.Transaction, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	RecordWithdrawal(ctx context.Context, amountCents int64, note string) (*models.Transaction, error)
}

// ExpenseInput carries one expense with its free-text category.
type ExpenseInput struct {
	Label       string
	Category    string
	AmountCents int64
}

type service struct {
	ledger ledger.Repository
	tx     txRunner
}

// NewService constructs an expense service instance.
func NewService(ledgerRepo ledger.Repository, tx txRunner) (Service, error) {
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{ledger: ledgerRepo, tx: tx}, nil
}

func (s *service) RecordExpense(ctx context.Context, input ExpenseInput) (*models.Transaction, error) {
	label, category, err := validateExpense(input)
	if err != nil {
		return nil, err
	}

	var committed *models.Transaction
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn := &models.Transaction{
			Kind:        enums.TransactionKindExpense,
			AmountCents: input.AmountCents,
			Label:       label,
			Category:    &category,
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

func (s *service) UpdateExpense(ctx context.Context, id uuid.UUID, input ExpenseInput) (*models.Transaction, error) {
	label, category, err := validateExpense(input)
	if err != nil {
		return nil, err
	}

	var committed *models.Transaction
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ledger.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load transaction")
		}
		if existing.Kind != enums.TransactionKindExpense {
			return pkgerrors.New(pkgerrors.CodeValidation, "only expense transactions can be edited")
		}
		existing.AmountCents = input.AmountCents
		existing.Label = label
		existing.Category = &category
		if err := repo.Update(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update transaction")
		}
		committed = existing
		return nil
	}); err != nil {
		return nil, err
	}
	return committed, nil
}

// DeleteExpense reverses an expense entirely. Expenses touch nothing but
// cash, so removing the row restores the pre-expense state.
func (s *service) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ledger.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load transaction")
		}
		if existing.Kind != enums.TransactionKindExpense {
			return pkgerrors.New(pkgerrors.CodeValidation, "only expense transactions can be deleted")
		}
		if err := repo.DeleteByID(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete transaction")
		}
		return nil
	})
}

func (s *service) RecordWithdrawal(ctx context.Context, amountCents int64, note string) (*models.Transaction, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "withdrawal amount must be positive")
	}
	label := strings.TrimSpace(note)
	if label == "" {
		label = "Personal withdrawal"
	}

	var committed *models.Transaction
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn := &models.Transaction{
			Kind:        enums.TransactionKindPersonalWithdrawal,
			AmountCents: amountCents,
			Label:       label,
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

func validateExpense(input ExpenseInput) (label, category string, err error) {
	if input.AmountCents <= 0 {
		return "", "", pkgerrors.New(pkgerrors.CodeInvalidAmount, "expense amount must be positive")
	}
	label = strings.TrimSpace(input.Label)
	if label == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "expense label is required")
	}
	category = strings.TrimSpace(input.Category)
	if category == "" {
		category = "general"
	}
	return label, category, nil
}
