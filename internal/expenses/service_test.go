package expenses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error { return fn(tx) })
}

type expenseFixture struct {
	svc    Service
	ledger ledger.Repository
}

func newExpenseFixture(t *testing.T) *expenseFixture {
	t.Helper()

	dsn := "file:expenses_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}))

	ledgerRepo := ledger.NewRepository(db)
	svc, err := NewService(ledgerRepo, dbTxRunner{db: db})
	require.NoError(t, err)
	return &expenseFixture{svc: svc, ledger: ledgerRepo}
}

func TestRecordExpense(t *testing.T) {
	f := newExpenseFixture(t)

	txn, err := f.svc.RecordExpense(context.Background(), ExpenseInput{
		Label:       "March rent",
		Category:    "rent",
		AmountCents: 80000,
	})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if txn.Kind != enums.TransactionKindExpense {
		t.Fatalf("expected expense kind, got %s", txn.Kind)
	}
	if txn.Category == nil || *txn.Category != "rent" {
		t.Fatalf("expected category rent, got %v", txn.Category)
	}
}

func TestRecordExpenseDefaultsCategory(t *testing.T) {
	f := newExpenseFixture(t)

	txn, err := f.svc.RecordExpense(context.Background(), ExpenseInput{
		Label:       "Cleaning supplies",
		AmountCents: 1200,
	})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if txn.Category == nil || *txn.Category != "general" {
		t.Fatalf("expected default category, got %v", txn.Category)
	}
}

func TestUpdateExpense(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	txn, err := f.svc.RecordExpense(ctx, ExpenseInput{Label: "Rent", Category: "rent", AmountCents: 80000})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}

	updated, err := f.svc.UpdateExpense(ctx, txn.ID, ExpenseInput{Label: "March rent", Category: "rent", AmountCents: 85000})
	if err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if updated.ID != txn.ID {
		t.Fatal("update must rewrite the same transaction")
	}
	if updated.AmountCents != 85000 || updated.Label != "March rent" {
		t.Fatalf("expected rewritten figures, got amount=%d label=%q", updated.AmountCents, updated.Label)
	}
}

func TestUpdateExpenseRejectsOtherKinds(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	sale := &models.Transaction{Kind: enums.TransactionKindSale, AmountCents: 100, Label: "sale"}
	require.NoError(t, f.ledger.Create(ctx, sale))

	_, err := f.svc.UpdateExpense(ctx, sale.ID, ExpenseInput{Label: "x", AmountCents: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	txn, err := f.svc.RecordExpense(ctx, ExpenseInput{Label: "Rent", AmountCents: 80000})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if err := f.svc.DeleteExpense(ctx, txn.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if _, err := f.ledger.FindByID(ctx, txn.ID); err == nil {
		t.Fatal("expected expense gone")
	}

	if err := f.svc.DeleteExpense(ctx, uuid.New()); err == nil {
		t.Fatal("expected not found")
	}

	sale := &models.Transaction{Kind: enums.TransactionKindSale, AmountCents: 100, Label: "sale"}
	require.NoError(t, f.ledger.Create(ctx, sale))
	err = f.svc.DeleteExpense(ctx, sale.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestRecordWithdrawal(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	txn, err := f.svc.RecordWithdrawal(ctx, 5000, "")
	if err != nil {
		t.Fatalf("record withdrawal: %v", err)
	}
	if txn.Kind != enums.TransactionKindPersonalWithdrawal {
		t.Fatalf("expected withdrawal kind, got %s", txn.Kind)
	}
	if txn.Label != "Personal withdrawal" {
		t.Fatalf("expected default label, got %q", txn.Label)
	}

	labeled, err := f.svc.RecordWithdrawal(ctx, 2000, "Owner draw")
	if err != nil {
		t.Fatalf("record withdrawal: %v", err)
	}
	if labeled.Label != "Owner draw" {
		t.Fatalf("expected custom label, got %q", labeled.Label)
	}

	_, err = f.svc.RecordWithdrawal(ctx, 0, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidAmount {
		t.Fatalf("expected invalid amount code, got %v", err)
	}
}

func TestExpenseValidation(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordExpense(ctx, ExpenseInput{Label: "x", AmountCents: 0})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidAmount {
		t.Fatalf("expected invalid amount code, got %v", err)
	}

	_, err = f.svc.RecordExpense(ctx, ExpenseInput{Label: "  ", AmountCents: 100})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}
