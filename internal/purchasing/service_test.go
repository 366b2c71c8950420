package purchasing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/inventory"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/internal/suppliers"
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

type purchaseFixture struct {
	db        *gorm.DB
	svc       Service
	products  inventory.Repository
	suppliers suppliers.Repository
	ledger    ledger.Repository
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()

	dsn := "file:purchasing_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Supplier{},
		&models.Product{},
		&models.Transaction{},
	))

	f := &purchaseFixture{
		db:        db,
		products:  inventory.NewRepository(db),
		suppliers: suppliers.NewRepository(db),
		ledger:    ledger.NewRepository(db),
	}
	svc, err := NewService(f.products, f.suppliers, f.ledger, dbTxRunner{db: db})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *purchaseFixture) seedSupplier(t *testing.T) *models.Supplier {
	t.Helper()
	supplier := &models.Supplier{Name: "Wholesale Co", Phone: "0533333333"}
	require.NoError(t, f.suppliers.Create(context.Background(), supplier))
	return supplier
}

func (f *purchaseFixture) seedProduct(t *testing.T, qty int) *models.Product {
	t.Helper()
	product := &models.Product{Name: "Beans", SalePriceCents: 2500, Quantity: qty}
	require.NoError(t, f.products.Create(context.Background(), product))
	return product
}

func TestRecordPurchaseOnCredit(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	supplier := f.seedSupplier(t)
	product := f.seedProduct(t, 2)

	txn, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 2000}},
		Mode:       enums.PaymentModeCredit,
		PaidCents:  0,
		SupplierID: &supplier.ID,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if txn.Kind != enums.TransactionKindPurchase {
		t.Fatalf("expected purchase kind, got %s", txn.Kind)
	}
	if txn.AmountCents != 0 || txn.DebtAddedCents != 20000 {
		t.Fatalf("expected amount=0 debt=20000, got amount=%d debt=%d", txn.AmountCents, txn.DebtAddedCents)
	}

	reloaded, err := f.suppliers.FindByID(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("reload supplier: %v", err)
	}
	if reloaded.TotalDebtCents != 20000 {
		t.Fatalf("expected supplier debt 20000, got %d", reloaded.TotalDebtCents)
	}

	stock, err := f.products.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stock.Quantity != 12 {
		t.Fatalf("expected stock 12, got %d", stock.Quantity)
	}
}

func TestRecordPurchaseCash(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	supplier := f.seedSupplier(t)
	product := f.seedProduct(t, 0)

	txn, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:          []PurchaseLine{{ProductID: product.ID, Qty: 5, UnitCostCents: 1000}},
		DiscountCents: 500,
		Mode:          enums.PaymentModeCash,
		SupplierID:    &supplier.ID,
		Label:         "Weekly restock",
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if txn.AmountCents != 4500 || txn.DebtAddedCents != 0 {
		t.Fatalf("expected amount=4500 debt=0, got amount=%d debt=%d", txn.AmountCents, txn.DebtAddedCents)
	}
	if txn.Label != "Weekly restock" {
		t.Fatalf("expected custom label, got %q", txn.Label)
	}

	reloaded, err := f.suppliers.FindByID(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("reload supplier: %v", err)
	}
	if reloaded.TotalDebtCents != 0 {
		t.Fatalf("cash purchase must not add supplier debt, got %d", reloaded.TotalDebtCents)
	}
}

func TestRecordPurchaseCreditRequiresSupplier(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, 2)

	_, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart: []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 2000}},
		Mode: enums.PaymentModeCredit,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeMissingCounterparty {
		t.Fatalf("expected missing counterparty code, got %v", err)
	}

	// nothing committed: no transaction, no stock movement
	txns, err := f.ledger.List(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("expected empty log, got %d transactions", len(txns))
	}
	stock, err := f.products.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stock.Quantity != 2 {
		t.Fatalf("expected stock untouched at 2, got %d", stock.Quantity)
	}
}

func TestRecordPurchaseUnknownProductRollsBack(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	supplier := f.seedSupplier(t)

	_, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: uuid.New(), Qty: 3, UnitCostCents: 100}},
		Mode:       enums.PaymentModeCredit,
		SupplierID: &supplier.ID,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}

	// the whole unit rolled back, including the supplier debt
	reloaded, err := f.suppliers.FindByID(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("reload supplier: %v", err)
	}
	if reloaded.TotalDebtCents != 0 {
		t.Fatalf("expected supplier debt 0 after rollback, got %d", reloaded.TotalDebtCents)
	}
	txns, err := f.ledger.List(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("expected empty log, got %d transactions", len(txns))
	}
}

func TestCorrectionAdjustsMoneyNotStock(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	supplier := f.seedSupplier(t)
	product := f.seedProduct(t, 0)

	original, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 2000}},
		Mode:       enums.PaymentModeCredit,
		SupplierID: &supplier.ID,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	// re-price the same 10 units at 1500 with 5000 paid
	corrected, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 1500}},
		Mode:       enums.PaymentModeCredit,
		PaidCents:  5000,
		SupplierID: &supplier.ID,
		EditID:     &original.ID,
	})
	if err != nil {
		t.Fatalf("correct purchase: %v", err)
	}
	if corrected.ID != original.ID {
		t.Fatal("correction must rewrite the original transaction")
	}
	if corrected.AmountCents != 5000 || corrected.DebtAddedCents != 10000 {
		t.Fatalf("expected amount=5000 debt=10000, got amount=%d debt=%d",
			corrected.AmountCents, corrected.DebtAddedCents)
	}

	reloaded, err := f.suppliers.FindByID(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("reload supplier: %v", err)
	}
	// 20000 original minus 10000 correction delta
	if reloaded.TotalDebtCents != 10000 {
		t.Fatalf("expected supplier debt 10000, got %d", reloaded.TotalDebtCents)
	}

	stock, err := f.products.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stock.Quantity != 10 {
		t.Fatalf("correction must not move stock, got %d", stock.Quantity)
	}
}

func TestCorrectionCannotMoveSupplier(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	supplier := f.seedSupplier(t)
	other := &models.Supplier{Name: "Other Wholesale", Phone: "0544444444"}
	require.NoError(t, f.suppliers.Create(ctx, other))
	product := f.seedProduct(t, 0)

	original, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 2000}},
		Mode:       enums.PaymentModeCredit,
		SupplierID: &supplier.ID,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	_, err = f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 1500}},
		Mode:       enums.PaymentModeCredit,
		SupplierID: &other.ID,
		EditID:     &original.ID,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}

	// both supplier balances stay where they were
	reloaded, err := f.suppliers.FindByID(ctx, supplier.ID)
	if err != nil {
		t.Fatalf("reload supplier: %v", err)
	}
	if reloaded.TotalDebtCents != 20000 {
		t.Fatalf("expected original supplier debt 20000, got %d", reloaded.TotalDebtCents)
	}
	otherReloaded, err := f.suppliers.FindByID(ctx, other.ID)
	if err != nil {
		t.Fatalf("reload other supplier: %v", err)
	}
	if otherReloaded.TotalDebtCents != 0 {
		t.Fatalf("expected other supplier debt 0, got %d", otherReloaded.TotalDebtCents)
	}
}

func TestCorrectionRejectsNonPurchase(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	expense := &models.Transaction{Kind: enums.TransactionKindExpense, AmountCents: 100, Label: "rent"}
	require.NoError(t, f.ledger.Create(ctx, expense))

	product := f.seedProduct(t, 0)
	_, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:   []PurchaseLine{{ProductID: product.ID, Qty: 1, UnitCostCents: 100}},
		Mode:   enums.PaymentModeCash,
		EditID: &expense.ID,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestCorrectionGuardsSupplierBalance(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	supplier := f.seedSupplier(t)
	product := f.seedProduct(t, 0)

	original, err := f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 2000}},
		Mode:       enums.PaymentModeCredit,
		SupplierID: &supplier.ID,
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	// the supplier was already paid down out of band
	require.NoError(t, f.suppliers.SetDebt(ctx, supplier.ID, 0))

	_, err = f.svc.RecordPurchase(ctx, PurchaseInput{
		Cart:       []PurchaseLine{{ProductID: product.ID, Qty: 10, UnitCostCents: 500}},
		Mode:       enums.PaymentModeCredit,
		SupplierID: &supplier.ID,
		EditID:     &original.ID,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConsistency {
		t.Fatalf("expected consistency code, got %v", err)
	}
}

func TestRecordPurchaseCartValidation(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, 0)

	cases := []struct {
		name string
		cart []PurchaseLine
	}{
		{"empty cart", nil},
		{"nil product", []PurchaseLine{{Qty: 1, UnitCostCents: 100}}},
		{"zero qty", []PurchaseLine{{ProductID: product.ID, UnitCostCents: 100}}},
		{"negative cost", []PurchaseLine{{ProductID: product.ID, Qty: 1, UnitCostCents: -1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RecordPurchase(ctx, PurchaseInput{Cart: tc.cart, Mode: enums.PaymentModeCash})
			if err == nil {
				t.Fatal("expected error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}
