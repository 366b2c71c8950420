package members

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/customers"
	"github.com/samerhaddad/clubledger-backend/internal/identity"
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

type memberFixture struct {
	db        *gorm.DB
	svc       Service
	customers customers.Repository
	ledger    ledger.Repository
}

func newMemberFixture(t *testing.T) *memberFixture {
	t.Helper()

	dsn := "file:members_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Member{},
		&models.Customer{},
		&models.Supplier{},
		&models.Employee{},
		&models.Transaction{},
	))

	customerRepo := customers.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	svc, err := NewService(NewRepository(db), customerRepo, ledgerRepo, identity.NewResolver(db), dbTxRunner{db: db})
	require.NoError(t, err)
	return &memberFixture{db: db, svc: svc, customers: customerRepo, ledger: ledgerRepo}
}

func registerInput(name, phone string) RegisterInput {
	return RegisterInput{
		Name:       name,
		Phone:      phone,
		Plan:       "monthly",
		PlanMonths: 1,
		PriceCents: 13000,
		StartDate:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Mode:       enums.PaymentModeCash,
	}
}

func TestRegisterCashPaysFullPrice(t *testing.T) {
	f := newMemberFixture(t)

	result, err := f.svc.RegisterOrRenew(context.Background(), registerInput("Sara Haddad", "0600000001"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Member.TotalDebtCents != 0 {
		t.Fatalf("expected zero debt, got %d", result.Member.TotalDebtCents)
	}
	if result.Member.Status != enums.MemberStatusActive {
		t.Fatalf("expected active status, got %s", result.Member.Status)
	}
	wantEnd := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	if !result.Member.EndDate.Equal(wantEnd) {
		t.Fatalf("expected end date %s, got %s", wantEnd, result.Member.EndDate)
	}
	if result.Transaction.Kind != enums.TransactionKindMembership {
		t.Fatalf("expected membership transaction, got %s", result.Transaction.Kind)
	}
	if result.Transaction.AmountCents != 13000 || result.Transaction.DebtAddedCents != 0 {
		t.Fatalf("expected amount=13000 debt=0, got amount=%d debt=%d",
			result.Transaction.AmountCents, result.Transaction.DebtAddedCents)
	}
	if result.Transaction.MemberID == nil || *result.Transaction.MemberID != result.Member.ID {
		t.Fatal("expected transaction linked to the member")
	}

	// no debt, no shadow customer
	shadow, err := f.customers.FindByIdentity(context.Background(), "Sara Haddad", "0600000001")
	if err != nil {
		t.Fatalf("find shadow: %v", err)
	}
	if shadow != nil {
		t.Fatal("expected no shadow customer for a fully paid registration")
	}
}

func TestRegisterCreditCreatesShadowCustomer(t *testing.T) {
	f := newMemberFixture(t)

	input := registerInput("Sara Haddad", "0600000001")
	input.Mode = enums.PaymentModeCredit
	input.PaidCents = 3000

	result, err := f.svc.RegisterOrRenew(context.Background(), input)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Member.TotalDebtCents != 10000 {
		t.Fatalf("expected debt 10000, got %d", result.Member.TotalDebtCents)
	}
	if result.Transaction.AmountCents != 3000 || result.Transaction.DebtAddedCents != 10000 {
		t.Fatalf("expected amount=3000 debt=10000, got amount=%d debt=%d",
			result.Transaction.AmountCents, result.Transaction.DebtAddedCents)
	}

	shadow, err := f.customers.FindByIdentity(context.Background(), "Sara Haddad", "0600000001")
	if err != nil {
		t.Fatalf("find shadow: %v", err)
	}
	if shadow == nil {
		t.Fatal("expected a shadow customer")
	}
	if shadow.TotalDebtCents != 0 {
		t.Fatalf("shadow customer must carry no balance, got %d", shadow.TotalDebtCents)
	}
}

func TestRenewalStacksDebt(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	input := registerInput("Sara Haddad", "0600000001")
	input.Mode = enums.PaymentModeCredit
	input.PaidCents = 8000
	first, err := f.svc.RegisterOrRenew(ctx, input)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Member.TotalDebtCents != 5000 {
		t.Fatalf("expected debt 5000, got %d", first.Member.TotalDebtCents)
	}

	renewal := registerInput("Sara Haddad", "0600000001")
	renewal.MemberID = &first.Member.ID
	renewal.Mode = enums.PaymentModeCredit
	renewal.PaidCents = 10000
	renewal.StartDate = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	second, err := f.svc.RegisterOrRenew(ctx, renewal)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if second.Member.TotalDebtCents != 8000 {
		t.Fatalf("expected stacked debt 8000, got %d", second.Member.TotalDebtCents)
	}

	txns, err := f.ledger.ListByCounterparty(ctx, enums.CounterpartyRoleMember, first.Member.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 membership transactions, got %d", len(txns))
	}
}

func TestRenewalUnknownMember(t *testing.T) {
	f := newMemberFixture(t)

	input := registerInput("Ghost", "0")
	missing := uuid.New()
	input.MemberID = &missing
	_, err := f.svc.RegisterOrRenew(context.Background(), input)
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterOrRenew(ctx, registerInput("Sara Haddad", "0600000001")); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := f.svc.RegisterOrRenew(ctx, registerInput("Sara Haddad", "0699999999"))
	if err == nil {
		t.Fatal("expected duplicate rejection")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestRenewalAttributesEmployee(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	// staff member holding a membership: the renewal is tagged with the
	// employee id sharing the identity
	employee := &models.Employee{ID: uuid.New(), Name: "Sara Haddad", Phone: "0600000001", JobTitle: "barista"}
	require.NoError(t, f.db.Create(employee).Error)
	member := &models.Member{
		ID:         uuid.New(),
		Name:       "Sara Haddad",
		Phone:      "0600000001",
		Plan:       "monthly",
		PlanMonths: 1,
		Status:     enums.MemberStatusActive,
	}
	require.NoError(t, f.db.Create(member).Error)

	input := registerInput("Sara Haddad", "0600000001")
	input.MemberID = &member.ID
	result, err := f.svc.RegisterOrRenew(ctx, input)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if result.Transaction.EmployeeID == nil || *result.Transaction.EmployeeID != employee.ID {
		t.Fatal("expected transaction attributed to the matching employee")
	}
}

func TestRegisterRejectsEmployeeIdentity(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	employee := &models.Employee{ID: uuid.New(), Name: "Karim Ziani", Phone: "0600000002", JobTitle: "barman"}
	require.NoError(t, f.db.Create(employee).Error)

	_, err := f.svc.RegisterOrRenew(ctx, registerInput("Karim Ziani", "0600000002"))
	if err == nil {
		t.Fatal("expected duplicate rejection")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestUpdateIsEditOnly(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	input := registerInput("Sara Haddad", "0600000001")
	input.Mode = enums.PaymentModeCredit
	input.PaidCents = 3000
	result, err := f.svc.RegisterOrRenew(ctx, input)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	newPlan := "quarterly"
	newMonths := 3
	updated, err := f.svc.Update(ctx, result.Member.ID, UpdateInput{Plan: &newPlan, PlanMonths: &newMonths})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Plan != "quarterly" || updated.PlanMonths != 3 {
		t.Fatalf("expected plan change applied, got %s/%d", updated.Plan, updated.PlanMonths)
	}
	if updated.TotalDebtCents != 10000 {
		t.Fatalf("edit must not touch debt, got %d", updated.TotalDebtCents)
	}
	wantEnd := result.Member.StartDate.AddDate(0, 3, 0)
	if !updated.EndDate.Equal(wantEnd) {
		t.Fatalf("expected recomputed end date %s, got %s", wantEnd, updated.EndDate)
	}

	txns, err := f.ledger.List(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("edit must not append transactions, got %d", len(txns))
	}
}

func TestSetStatus(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	result, err := f.svc.RegisterOrRenew(ctx, registerInput("Sara Haddad", "0600000001"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	frozen, err := f.svc.SetStatus(ctx, result.Member.ID, enums.MemberStatusFrozen)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if frozen.Status != enums.MemberStatusFrozen {
		t.Fatalf("expected frozen, got %s", frozen.Status)
	}

	if _, err := f.svc.SetStatus(ctx, result.Member.ID, enums.MemberStatus("paused")); err == nil {
		t.Fatal("expected rejection of unknown status")
	}
}

func TestDeleteBlockedByDebt(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	input := registerInput("Sara Haddad", "0600000001")
	input.Mode = enums.PaymentModeCredit
	result, err := f.svc.RegisterOrRenew(ctx, input)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = f.svc.Delete(ctx, result.Member.ID)
	if err == nil {
		t.Fatal("expected delete to be blocked")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutstandingDebt {
		t.Fatalf("expected outstanding debt code, got %v", err)
	}

	clean, err := f.svc.RegisterOrRenew(ctx, registerInput("Omar Idrissi", "0611111111"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.svc.Delete(ctx, clean.Member.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, clean.Member.ID); err == nil {
		t.Fatal("expected member gone")
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newMemberFixture(t)
	ctx := context.Background()

	blank := registerInput("", "0600000001")
	if _, err := f.svc.RegisterOrRenew(ctx, blank); err == nil {
		t.Fatal("expected name rejection")
	}

	noPlan := registerInput("Sara", "0600000001")
	noPlan.Plan = " "
	if _, err := f.svc.RegisterOrRenew(ctx, noPlan); err == nil {
		t.Fatal("expected plan rejection")
	}

	badMonths := registerInput("Sara", "0600000001")
	badMonths.PlanMonths = 0
	if _, err := f.svc.RegisterOrRenew(ctx, badMonths); err == nil {
		t.Fatal("expected plan_months rejection")
	}

	noStart := registerInput("Sara", "0600000001")
	noStart.StartDate = time.Time{}
	if _, err := f.svc.RegisterOrRenew(ctx, noStart); err == nil {
		t.Fatal("expected start_date rejection")
	}
}
