package suppliers

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

// Service exposes supplier management.
type Service interface {
	Create(ctx context.Context, name, phone string, category *string) (*models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, name, phone string, category *string) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context) ([]models.Supplier, error)
}

type service struct {
	repo     Repository
	resolver identity.Resolver
}

// NewService constructs a supplier service instance.
func NewService(repo Repository, resolver identity.Resolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	return &service{repo: repo, resolver: resolver}, nil
}

func (s *service) Create(ctx context.Context, name, phone string, category *string) (*models.Supplier, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, uuid.Nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}
	if duplicate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
	}
	supplier := &models.Supplier{Name: name, Phone: phone, Category: category}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert supplier")
	}
	return supplier, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, name, phone string, category *string) (*models.Supplier, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
	}
	if duplicate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
	}
	supplier.Name = name
	supplier.Phone = phone
	if category != nil {
		supplier.Category = category
	}
	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update supplier")
	}
	return supplier, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if supplier.TotalDebtCents != 0 {
		return pkgerrors.New(pkgerrors.CodeOutstandingDebt, "the business still owes this supplier")
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete supplier")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

func (s *service) List(ctx context.Context) ([]models.Supplier, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list suppliers")
	}
	return out, nil
}
