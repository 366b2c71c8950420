package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

// Projector computes every derived money view. It only reads; all figures come
// from the transaction log plus entity snapshots.
type Projector interface {
	CashBalance(ctx context.Context) (int64, error)
	Report(ctx context.Context) (*ReportData, error)
	EmployeeBalance(ctx context.Context, employeeID uuid.UUID) (int64, error)
	Statement(ctx context.Context, role enums.CounterpartyRole, counterpartyID uuid.UUID) (*StatementResult, error)
	MonthlyDebtAdded(ctx context.Context, month, year int) (int64, error)
	Debtors(ctx context.Context) ([]Debtor, error)
}

// ReportData is the income/expense summary.
type ReportData struct {
	MembershipRevenueCents   int64 `json:"membership_revenue_cents"`
	POSRevenueCents          int64 `json:"pos_revenue_cents"`
	PurchasesCents           int64 `json:"purchases_cents"`
	SalariesCents            int64 `json:"salaries_cents"`
	ExpensesCents            int64 `json:"expenses_cents"`
	PersonalWithdrawalsCents int64 `json:"personal_withdrawals_cents"`
	DebtsOwedToBusinessCents int64 `json:"debts_owed_to_business_cents"`
	NetProfitCents           int64 `json:"net_profit_cents"`
	CashBalanceCents         int64 `json:"cash_balance_cents"`
}

// StatementResult is the ordered transaction history of one counterparty plus
// its closing balance (stored debt, or the absolute derived balance for
// employees).
type StatementResult struct {
	Transactions        []models.Transaction `json:"transactions"`
	ClosingBalanceCents int64                `json:"closing_balance_cents"`
}

// Debtor is one row of the debtors view.
type Debtor struct {
	Role      enums.CounterpartyRole `json:"role"`
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	DebtCents int64                  `json:"debt_cents"`
}

type memberDebtSource interface {
	SumDebt(ctx context.Context) (int64, error)
	ListDebtors(ctx context.Context) ([]models.Member, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

type customerDebtSource interface {
	SumDebt(ctx context.Context) (int64, error)
	ListDebtors(ctx context.Context) ([]models.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type supplierSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

type employeeSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
}

type projector struct {
	repo      Repository
	resolver  identity.Resolver
	members   memberDebtSource
	customers customerDebtSource
	suppliers supplierSource
	employees employeeSource
}

// NewProjector constructs the read-only ledger projector.
func NewProjector(repo Repository, resolver identity.Resolver, memberSource memberDebtSource, customerSource customerDebtSource, supplierSource supplierSource, employeeSource employeeSource) (Projector, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if memberSource == nil {
		return nil, fmt.Errorf("member source required")
	}
	if customerSource == nil {
		return nil, fmt.Errorf("customer source required")
	}
	if supplierSource == nil {
		return nil, fmt.Errorf("supplier source required")
	}
	if employeeSource == nil {
		return nil, fmt.Errorf("employee source required")
	}
	return &projector{
		repo:      repo,
		resolver:  resolver,
		members:   memberSource,
		customers: customerSource,
		suppliers: supplierSource,
		employees: employeeSource,
	}, nil
}

// CashBalance is the signed sum of amounts over the whole log. The kind
// partition comes from the enum itself, so a new kind cannot be forgotten.
func (p *projector) CashBalance(ctx context.Context) (int64, error) {
	var inflows, outflows []enums.TransactionKind
	for _, kind := range enums.TransactionKinds() {
		if kind.CashSign() > 0 {
			inflows = append(inflows, kind)
		} else {
			outflows = append(outflows, kind)
		}
	}

	in, err := p.repo.SumAmountByKinds(ctx, inflows...)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum inflows")
	}
	out, err := p.repo.SumAmountByKinds(ctx, outflows...)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum outflows")
	}
	return in - out, nil
}

// Report builds the income/expense summary. Revenue buckets count the full
// invoiced value (cash received plus debt added); cost buckets count cash out.
func (p *projector) Report(ctx context.Context) (*ReportData, error) {
	membership, err := p.repo.SumInvoicedByKind(ctx, enums.TransactionKindMembership)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum membership revenue")
	}
	pos, err := p.repo.SumInvoicedByKind(ctx, enums.TransactionKindSale)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum pos revenue")
	}
	purchases, err := p.repo.SumInvoicedByKind(ctx, enums.TransactionKindPurchase)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum purchases")
	}
	salaries, err := p.repo.SumAmountByKinds(ctx, enums.TransactionKindSalaryPayment, enums.TransactionKindAdvance)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum salaries")
	}
	expenses, err := p.repo.SumAmountByKinds(ctx, enums.TransactionKindExpense)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum expenses")
	}
	withdrawals, err := p.repo.SumAmountByKinds(ctx, enums.TransactionKindPersonalWithdrawal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum withdrawals")
	}
	memberDebt, err := p.members.SumDebt(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum member debt")
	}
	customerDebt, err := p.customers.SumDebt(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum customer debt")
	}
	cash, err := p.CashBalance(ctx)
	if err != nil {
		return nil, err
	}

	return &ReportData{
		MembershipRevenueCents:   membership,
		POSRevenueCents:          pos,
		PurchasesCents:           purchases,
		SalariesCents:            salaries,
		ExpensesCents:            expenses,
		PersonalWithdrawalsCents: withdrawals,
		DebtsOwedToBusinessCents: memberDebt + customerDebt,
		NetProfitCents:           (membership + pos) - (salaries + purchases + expenses),
		CashBalanceCents:         cash,
	}, nil
}

// EmployeeBalance derives the amount the business still owes the employee:
// salary minus payroll already drawn minus debt linked by identity. Negative
// means the employee owes the business.
func (p *projector) EmployeeBalance(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	employee, err := p.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}

	drawn, err := p.repo.SumPayrollForEmployee(ctx, employee.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payroll")
	}
	linked, err := p.resolver.LinkedExternalDebt(ctx, employee)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum linked debt")
	}
	return employee.SalaryCents - drawn - linked, nil
}

// Statement lists every transaction linked to the counterparty in commit
// order, closing with the current balance.
func (p *projector) Statement(ctx context.Context, role enums.CounterpartyRole, counterpartyID uuid.UUID) (*StatementResult, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid counterparty role %q", role))
	}
	txns, err := p.repo.ListByCounterparty(ctx, role, counterpartyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	var closing int64
	switch role {
	case enums.CounterpartyRoleMember:
		member, err := p.members.FindByID(ctx, counterpartyID)
		if err != nil {
			return nil, notFoundOrDependency(err, "member")
		}
		closing = member.TotalDebtCents
	case enums.CounterpartyRoleCustomer:
		customer, err := p.customers.FindByID(ctx, counterpartyID)
		if err != nil {
			return nil, notFoundOrDependency(err, "customer")
		}
		closing = customer.TotalDebtCents
	case enums.CounterpartyRoleSupplier:
		supplier, err := p.suppliers.FindByID(ctx, counterpartyID)
		if err != nil {
			return nil, notFoundOrDependency(err, "supplier")
		}
		closing = supplier.TotalDebtCents
	case enums.CounterpartyRoleEmployee:
		closing, err = p.EmployeeBalance(ctx, counterpartyID)
		if err != nil {
			return nil, err
		}
		// the statement reports the magnitude, whichever side owes
		if closing < 0 {
			closing = -closing
		}
	}

	return &StatementResult{Transactions: txns, ClosingBalanceCents: closing}, nil
}

// MonthlyDebtAdded totals new debt across one calendar month.
func (p *projector) MonthlyDebtAdded(ctx context.Context, month, year int) (int64, error) {
	if month < 1 || month > 12 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "month must be between 1 and 12")
	}
	if year < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "year is required")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	sum, err := p.repo.SumDebtAddedBetween(ctx, from, to)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum debt added")
	}
	return sum, nil
}

// Debtors lists every counterparty that currently owes the business,
// including employees whose derived balance has gone negative.
func (p *projector) Debtors(ctx context.Context) ([]Debtor, error) {
	var out []Debtor

	memberDebtors, err := p.members.ListDebtors(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member debtors")
	}
	for _, member := range memberDebtors {
		out = append(out, Debtor{
			Role:      enums.CounterpartyRoleMember,
			ID:        member.ID,
			Name:      member.Name,
			DebtCents: member.TotalDebtCents,
		})
	}

	customerDebtors, err := p.customers.ListDebtors(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer debtors")
	}
	for _, customer := range customerDebtors {
		out = append(out, Debtor{
			Role:      enums.CounterpartyRoleCustomer,
			ID:        customer.ID,
			Name:      customer.Name,
			DebtCents: customer.TotalDebtCents,
		})
	}

	staff, err := p.employees.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employees")
	}
	for _, employee := range staff {
		balance, err := p.EmployeeBalance(ctx, employee.ID)
		if err != nil {
			return nil, err
		}
		if balance < 0 {
			out = append(out, Debtor{
				Role:      enums.CounterpartyRoleEmployee,
				ID:        employee.ID,
				Name:      employee.Name,
				DebtCents: -balance,
			})
		}
	}

	return out, nil
}

func notFoundOrDependency(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
