package suppliers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

func newSupplierService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := "file:suppliers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Member{},
		&models.Customer{},
		&models.Supplier{},
		&models.Employee{},
	))

	svc, err := NewService(NewRepository(db), identity.NewResolver(db))
	require.NoError(t, err)
	return svc, db
}

func strPtr(v string) *string {
	return &v
}

func TestCreateSupplier(t *testing.T) {
	svc, _ := newSupplierService(t)

	supplier, err := svc.Create(context.Background(), "Wholesale Co", "0533333333", strPtr("drinks"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if supplier.Category == nil || *supplier.Category != "drinks" {
		t.Fatalf("expected category drinks, got %v", supplier.Category)
	}
	if supplier.TotalDebtCents != 0 {
		t.Fatalf("new supplier must start at zero debt, got %d", supplier.TotalDebtCents)
	}
}

func TestCreateSupplierDuplicateRejected(t *testing.T) {
	svc, _ := newSupplierService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Wholesale Co", "0533333333", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(ctx, "Wholesale Co", "0544444444", nil)
	if err == nil {
		t.Fatal("expected duplicate rejection")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestDeleteSupplierBlockedByDebt(t *testing.T) {
	svc, db := newSupplierService(t)
	ctx := context.Background()

	supplier, err := svc.Create(ctx, "Wholesale Co", "0533333333", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	require.NoError(t, db.Model(&models.Supplier{}).Where("id = ?", supplier.ID).
		Update("total_debt_cents", 7000).Error)

	err = svc.Delete(ctx, supplier.ID)
	if err == nil {
		t.Fatal("expected delete blocked")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutstandingDebt {
		t.Fatalf("expected outstanding debt code, got %v", err)
	}

	require.NoError(t, db.Model(&models.Supplier{}).Where("id = ?", supplier.ID).
		Update("total_debt_cents", 0).Error)
	if err := svc.Delete(ctx, supplier.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, supplier.ID); err == nil {
		t.Fatal("expected supplier gone")
	}
}
