package members

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
)

// Repository manages persistence for member records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Member, error)
	AddDebt(ctx context.Context, id uuid.UUID, deltaCents int64) error
	SetDebt(ctx context.Context, id uuid.UUID, debtCents int64) error
	SumDebt(ctx context.Context) (int64, error)
	ListDebtors(ctx context.Context) ([]models.Member, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a member repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	member.Name = strings.TrimSpace(member.Name)
	member.Phone = strings.TrimSpace(member.Phone)
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repository) Update(ctx context.Context, member *models.Member) error {
	member.Name = strings.TrimSpace(member.Name)
	member.Phone = strings.TrimSpace(member.Phone)
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Member{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context) ([]models.Member, error) {
	var out []models.Member
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AddDebt applies a debt delta. Negative deltas are guarded so the stored
// balance can never go below zero.
func (r *repository) AddDebt(ctx context.Context, id uuid.UUID, deltaCents int64) error {
	query := r.db.WithContext(ctx).
		Model(&models.Member{}).
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
		Model(&models.Member{}).
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
		Model(&models.Member{}).
		Select("SUM(total_debt_cents)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) ListDebtors(ctx context.Context) ([]models.Member, error) {
	var out []models.Member
	if err := r.db.WithContext(ctx).
		Where("total_debt_cents > 0").
		Order("total_debt_cents DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
