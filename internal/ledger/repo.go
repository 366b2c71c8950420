package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
)

// Repository manages persistence for transaction records. Every writer in the
// system appends through it so the log stays the single source of truth.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	Update(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Transaction, error)
	ListByCounterparty(ctx context.Context, role enums.CounterpartyRole, id uuid.UUID) ([]models.Transaction, error)
	SumAmountByKinds(ctx context.Context, kinds ...enums.TransactionKind) (int64, error)
	SumInvoicedByKind(ctx context.Context, kind enums.TransactionKind) (int64, error)
	SumPayrollForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
	SumDebtAddedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) Update(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListByCounterparty(ctx context.Context, role enums.CounterpartyRole, id uuid.UUID) ([]models.Transaction, error) {
	column, err := linkColumn(role)
	if err != nil {
		return nil, err
	}
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where(column+" = ?", id).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) SumAmountByKinds(ctx context.Context, kinds ...enums.TransactionKind) (int64, error) {
	if len(kinds) == 0 {
		return 0, nil
	}
	var sum *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("kind IN ?", kinds).
		Select("SUM(amount_cents)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// SumInvoicedByKind totals amount + debt_added, the full invoiced value of a kind.
func (r *repository) SumInvoicedByKind(ctx context.Context, kind enums.TransactionKind) (int64, error) {
	var sum *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("kind = ?", kind).
		Select("SUM(amount_cents + debt_added_cents)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) SumPayrollForEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var sum *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("employee_id = ? AND kind IN ?", employeeID, []enums.TransactionKind{
			enums.TransactionKindAdvance,
			enums.TransactionKindSalaryPayment,
		}).
		Select("SUM(amount_cents)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) SumDebtAddedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var sum *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Select("SUM(debt_added_cents)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func linkColumn(role enums.CounterpartyRole) (string, error) {
	switch role {
	case enums.CounterpartyRoleMember:
		return "member_id", nil
	case enums.CounterpartyRoleCustomer:
		return "customer_id", nil
	case enums.CounterpartyRoleSupplier:
		return "supplier_id", nil
	case enums.CounterpartyRoleEmployee:
		return "employee_id", nil
	}
	return "", fmt.Errorf("unknown counterparty role %q", role)
}
