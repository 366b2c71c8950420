package employees

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
)

// Repository manages persistence for employee records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	Touch(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Employee, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an employee repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	employee.Name = strings.TrimSpace(employee.Name)
	employee.Phone = strings.TrimSpace(employee.Phone)
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *repository) Update(ctx context.Context, employee *models.Employee) error {
	employee.Name = strings.TrimSpace(employee.Name)
	employee.Phone = strings.TrimSpace(employee.Phone)
	return r.db.WithContext(ctx).Save(employee).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// Touch rewrites updated_at on the employee row. Run inside a transaction it
// takes the row write lock, so concurrent payroll against the same employee
// serializes. Returns false when no such employee exists.
func (r *repository) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Employee{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context) ([]models.Employee, error) {
	var out []models.Employee
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
