package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
)

// Repository manages persistence for customer records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByIdentity(ctx context.Context, name, phone string) (*models.Customer, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Customer, error)
	AddDebt(ctx context.Context, id uuid.UUID, deltaCents int64) error
	SetDebt(ctx context.Context, id uuid.UUID, debtCents int64) error
	SumDebt(ctx context.Context) (int64, error)
	ListDebtors(ctx context.Context) ([]models.Customer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) Update(ctx context.Context, customer *models.Customer) error {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByIdentity returns the customer matching the trimmed name or phone, or
// nil when no customer matches.
func (r *repository) FindByIdentity(ctx context.Context, name, phone string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" && phone == "" {
		return nil, nil
	}
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	switch {
	case name != "" && phone != "":
		query = query.Where("TRIM(name) = ? OR TRIM(phone) = ?", name, phone)
	case name != "":
		query = query.Where("TRIM(name) = ?", name)
	default:
		query = query.Where("TRIM(phone) = ?", phone)
	}
	var customer models.Customer
	if err := query.First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AddDebt applies a debt delta. Negative deltas are guarded so the stored
// balance can never go below zero.
func (r *repository) AddDebt(ctx context.Context, id uuid.UUID, deltaCents int64) error {
	query := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id)
	if deltaCents < 0 {
		query = query.Where("total_debt_cents >= ?", -deltaCents)
	}
	result := query.Update("total_debt_cents", gorm.Expr("total_debt_cents + ?", deltaCents))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetDebt(ctx context.Context, id uuid.UUID, debtCents int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Update("total_debt_cents", debtCents)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SumDebt(ctx context.Context) (int64, error) {
	var sum *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Select("SUM(total_debt_cents)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) ListDebtors(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	if err := r.db.WithContext(ctx).
		Where("total_debt_cents > 0").
		Order("total_debt_cents DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
