package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type balanceSource interface {
	EmployeeBalance(ctx context.Context, employeeID uuid.UUID) (int64, error)
}

// Service exposes employee management. Deletion is blocked while the derived
// balance says the employee still owes the business.
type Service interface {
	Create(ctx context.Context, input EmployeeInput) (*models.Employee, error)
	Update(ctx context.Context, id uuid.UUID, input EmployeeInput) (*models.Employee, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
}

// EmployeeInput carries the mutable employee fields.
type EmployeeInput struct {
	Name        string
	Phone       string
	JobTitle    string
	SalaryCents int64
}

type service struct {
	repo     Repository
	resolver identity.Resolver
	balances balanceSource
}

// NewService constructs an employee service instance.
func NewService(repo Repository, resolver identity.Resolver, balances balanceSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance source required")
	}
	return &service{repo: repo, resolver: resolver, balances: balances}, nil
}

func (s *service) Create(ctx context.Context, input EmployeeInput) (*models.Employee, error) {
	name, phone, title, err := validateEmployee(input)
	if err != nil {
		return nil, err
	}
	duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, uuid.Nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}
	if duplicate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
	}
	employee := &models.Employee{
		Name:        name,
		Phone:       phone,
		JobTitle:    title,
		SalaryCents: input.SalaryCents,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert employee")
	}
	return employee, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input EmployeeInput) (*models.Employee, error) {
	name, phone, title, err := validateEmployee(input)
	if err != nil {
		return nil, err
	}
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}
	if duplicate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
	}
	employee.Name = name
	employee.Phone = phone
	employee.JobTitle = title
	employee.SalaryCents = input.SalaryCents
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update employee")
	}
	return employee, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	balance, err := s.balances.EmployeeBalance(ctx, id)
	if err != nil {
		return err
	}
	if balance < 0 {
		return pkgerrors.New(pkgerrors.CodeOutstandingDebt, "employee still owes the business")
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete employee")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	return employee, nil
}

func (s *service) List(ctx context.Context) ([]models.Employee, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list employees")
	}
	return out, nil
}

func validateEmployee(input EmployeeInput) (name, phone, title string, err error) {
	name = strings.TrimSpace(input.Name)
	phone = strings.TrimSpace(input.Phone)
	title = strings.TrimSpace(input.JobTitle)
	if name == "" {
		return "", "", "", pkgerrors.New(pkgerrors.CodeValidation, "employee name is required")
	}
	if title == "" {
		return "", "", "", pkgerrors.New(pkgerrors.CodeValidation, "job title is required")
	}
	if input.SalaryCents < 0 {
		return "", "", "", pkgerrors.New(pkgerrors.CodeValidation, "salary must be non-negative")
	}
	return name, phone, title, nil
}
