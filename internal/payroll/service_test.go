package payroll

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/customers"
	"github.com/samerhaddad/clubledger-backend/internal/employees"
	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/internal/members"
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

type payrollFixture struct {
	db        *gorm.DB
	svc       Service
	employees employees.Repository
	customers customers.Repository
	ledger    ledger.Repository
	projector ledger.Projector
}

func newPayrollFixture(t *testing.T) *payrollFixture {
	t.Helper()

	dsn := "file:payroll_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Member{},
		&models.Customer{},
		&models.Supplier{},
		&models.Employee{},
		&models.Transaction{},
	))

	f := &payrollFixture{
		db:        db,
		employees: employees.NewRepository(db),
		customers: customers.NewRepository(db),
		ledger:    ledger.NewRepository(db),
	}
	resolver := identity.NewResolver(db)
	projector, err := ledger.NewProjector(f.ledger, resolver, members.NewRepository(db), f.customers, suppliers.NewRepository(db), f.employees)
	require.NoError(t, err)
	f.projector = projector

	svc, err := NewService(f.employees, f.ledger, resolver, dbTxRunner{db: db})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *payrollFixture) seedEmployee(t *testing.T, salaryCents int64) *models.Employee {
	t.Helper()
	employee := &models.Employee{Name: "Karim Ziani", Phone: "0600000002", JobTitle: "barman", SalaryCents: salaryCents}
	require.NoError(t, f.employees.Create(context.Background(), employee))
	return employee
}

func TestAdvanceDrawsAgainstBalance(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	employee := f.seedEmployee(t, 400000)

	txn, err := f.svc.Pay(ctx, PayInput{
		EmployeeID:  employee.ID,
		Kind:        enums.TransactionKindAdvance,
		AmountCents: 50000,
		PeriodMonth: 3,
		PeriodYear:  2026,
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if txn.Kind != enums.TransactionKindAdvance {
		t.Fatalf("expected advance kind, got %s", txn.Kind)
	}
	if txn.EmployeeID == nil || *txn.EmployeeID != employee.ID {
		t.Fatal("expected transaction linked to the employee")
	}
	if txn.PeriodMonth == nil || *txn.PeriodMonth != 3 || txn.PeriodYear == nil || *txn.PeriodYear != 2026 {
		t.Fatal("expected period tagged on the transaction")
	}

	balance, err := f.projector.EmployeeBalance(ctx, employee.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 350000 {
		t.Fatalf("expected balance 350000, got %d", balance)
	}
}

func TestSalaryPaymentAboveBalanceRejected(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	employee := f.seedEmployee(t, 400000)

	// the advance eats into the balance; a full salary no longer fits
	if _, err := f.svc.Pay(ctx, PayInput{
		EmployeeID:  employee.ID,
		Kind:        enums.TransactionKindAdvance,
		AmountCents: 50000,
		PeriodMonth: 3,
		PeriodYear:  2026,
	}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	_, err := f.svc.Pay(ctx, PayInput{
		EmployeeID:  employee.ID,
		Kind:        enums.TransactionKindSalaryPayment,
		AmountCents: 400000,
		PeriodMonth: 3,
		PeriodYear:  2026,
	})
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientBalance {
		t.Fatalf("expected insufficient balance code, got %v", err)
	}

	// the remaining 3500 still goes through
	if _, err := f.svc.Pay(ctx, PayInput{
		EmployeeID:  employee.ID,
		Kind:        enums.TransactionKindSalaryPayment,
		AmountCents: 350000,
		PeriodMonth: 3,
		PeriodYear:  2026,
	}); err != nil {
		t.Fatalf("salary: %v", err)
	}

	balance, err := f.projector.EmployeeBalance(ctx, employee.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
}

func TestLinkedDebtReducesAvailableBalance(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	employee := f.seedEmployee(t, 100000)
	require.NoError(t, f.customers.Create(ctx, &models.Customer{
		Name:           employee.Name,
		Phone:          employee.Phone,
		TotalDebtCents: 30000,
	}))

	_, err := f.svc.Pay(ctx, PayInput{
		EmployeeID:  employee.ID,
		Kind:        enums.TransactionKindSalaryPayment,
		AmountCents: 80000,
		PeriodMonth: 4,
		PeriodYear:  2026,
	})
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientBalance {
		t.Fatalf("expected insufficient balance code, got %v", err)
	}

	if _, err := f.svc.Pay(ctx, PayInput{
		EmployeeID:  employee.ID,
		Kind:        enums.TransactionKindSalaryPayment,
		AmountCents: 70000,
		PeriodMonth: 4,
		PeriodYear:  2026,
	}); err != nil {
		t.Fatalf("salary: %v", err)
	}
}

// racingTxRunner commits a rival write right before the payment transaction
// opens, standing in for a concurrent payment that lands between validation
// and commit.
type racingTxRunner struct {
	db    *gorm.DB
	rival func()
}

func (r *racingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.rival != nil {
		r.rival()
		r.rival = nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error { return fn(tx) })
}

func TestBalanceGuardSeesConcurrentlyCommittedAdvance(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()

	employee := f.seedEmployee(t, 400000)

	month, year := 3, 2026
	runner := &racingTxRunner{db: f.db}
	runner.rival = func() {
		require.NoError(t, f.ledger.Create(ctx, &models.Transaction{
			Kind:        enums.TransactionKindAdvance,
			AmountCents: 350000,
			Label:       "Advance - Karim Ziani (03/2026)",
			EmployeeID:  &employee.ID,
			PeriodMonth: &month,
			PeriodYear:  &year,
		}))
	}
	svc, err := NewService(f.employees, f.ledger, identity.NewResolver(f.db), runner)
	require.NoError(t, err)

	// 100000 fit when Pay was called, but the rival advance drained the
	// balance to 50000 before the payment transaction opened
	_, err = svc.Pay(ctx, PayInput{
		EmployeeID:  employee.ID,
		Kind:        enums.TransactionKindSalaryPayment,
		AmountCents: 100000,
		PeriodMonth: 3,
		PeriodYear:  2026,
	})
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientBalance {
		t.Fatalf("expected insufficient balance code, got %v", err)
	}

	txns, err := f.ledger.List(ctx)
	require.NoError(t, err)
	if len(txns) != 1 {
		t.Fatalf("expected only the rival advance in the log, got %d transactions", len(txns))
	}
}

func TestPayValidation(t *testing.T) {
	f := newPayrollFixture(t)
	ctx := context.Background()
	employee := f.seedEmployee(t, 100000)

	_, err := f.svc.Pay(ctx, PayInput{EmployeeID: employee.ID, Kind: enums.TransactionKindAdvance, AmountCents: 0, PeriodMonth: 1, PeriodYear: 2026})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidAmount {
		t.Fatalf("expected invalid amount code, got %v", err)
	}

	_, err = f.svc.Pay(ctx, PayInput{EmployeeID: employee.ID, Kind: enums.TransactionKindSale, AmountCents: 100, PeriodMonth: 1, PeriodYear: 2026})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code for non-payroll kind, got %v", err)
	}

	_, err = f.svc.Pay(ctx, PayInput{EmployeeID: employee.ID, Kind: enums.TransactionKindAdvance, AmountCents: 100, PeriodMonth: 13, PeriodYear: 2026})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code for bad month, got %v", err)
	}

	_, err = f.svc.Pay(ctx, PayInput{EmployeeID: uuid.New(), Kind: enums.TransactionKindAdvance, AmountCents: 100, PeriodMonth: 1, PeriodYear: 2026})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}
