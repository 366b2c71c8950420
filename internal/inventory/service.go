package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

// Service exposes product catalog management. It can create, rename, and
// re-price products; stock quantities only move through sales and purchases.
type Service interface {
	Create(ctx context.Context, name string, salePriceCents int64, initialQty int) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, name string, salePriceCents int64) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

type service struct {
	repo Repository
}

// NewService constructs a product catalog service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, name string, salePriceCents int64, initialQty int) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if salePriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be non-negative")
	}
	if initialQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial quantity must be non-negative")
	}
	product := &models.Product{
		Name:           name,
		SalePriceCents: salePriceCents,
		Quantity:       initialQty,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return product, nil
}

// Update renames or re-prices the product, never its stock.
func (s *service) Update(ctx context.Context, id uuid.UUID, name string, salePriceCents int64) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if salePriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be non-negative")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	product.Name = name
	product.SalePriceCents = salePriceCents
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context) ([]models.Product, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return out, nil
}
