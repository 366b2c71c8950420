package customers

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

// Service exposes explicit customer management. Most customer rows are
// created implicitly by sales and memberships; this surface covers the rest.
type Service interface {
	Create(ctx context.Context, name, phone string) (*models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, name, phone string) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
}

type service struct {
	repo     Repository
	resolver identity.Resolver
}

// NewService constructs a customer service instance.
func NewService(repo Repository, resolver identity.Resolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	return &service{repo: repo, resolver: resolver}, nil
}

func (s *service) Create(ctx context.Context, name, phone string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, uuid.Nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}
	if duplicate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
	}
	customer := &models.Customer{Name: name, Phone: phone}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert customer")
	}
	return customer, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, name, phone string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}
	if duplicate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
	}
	customer.Name = name
	customer.Phone = phone
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update customer")
	}
	return customer, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.TotalDebtCents != 0 {
		return pkgerrors.New(pkgerrors.CodeOutstandingDebt, "customer still has outstanding debt")
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete customer")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context) ([]models.Customer, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list customers")
	}
	return out, nil
}
