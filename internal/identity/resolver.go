package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

// Resolver answers identity questions that span the four person stores:
// duplicate detection, employee attribution, and role lookup for a bare id.
type Resolver interface {
	WithTx(tx *gorm.DB) Resolver
	IsDuplicate(ctx context.Context, name, phone string, excludeID uuid.UUID) (bool, error)
	MatchEmployee(ctx context.Context, name, phone string) (*models.Employee, error)
	ResolveRole(ctx context.Context, id uuid.UUID) (enums.CounterpartyRole, error)
	LinkedExternalDebt(ctx context.Context, employee *models.Employee) (int64, error)
}

type resolver struct {
	db *gorm.DB
}

// NewResolver returns a resolver bound to the provided database.
func NewResolver(db *gorm.DB) Resolver {
	return &resolver{db: db}
}

func (r *resolver) WithTx(tx *gorm.DB) Resolver {
	if tx == nil {
		return r
	}
	return &resolver{db: tx}
}

// identityMatch builds the WHERE clause for trimmed name/phone equality.
// Empty fields never match: two people without a phone are not the same person.
func identityMatch(query *gorm.DB, name, phone string) *gorm.DB {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	switch {
	case name != "" && phone != "":
		return query.Where("TRIM(name) = ? OR TRIM(phone) = ?", name, phone)
	case name != "":
		return query.Where("TRIM(name) = ?", name)
	case phone != "":
		return query.Where("TRIM(phone) = ?", phone)
	}
	return query.Where("1 = 0")
}

// IsDuplicate reports whether any member, customer, supplier, or employee other
// than excludeID shares the trimmed name or phone.
func (r *resolver) IsDuplicate(ctx context.Context, name, phone string, excludeID uuid.UUID) (bool, error) {
	if strings.TrimSpace(name) == "" && strings.TrimSpace(phone) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "name or phone is required")
	}

	tables := []any{
		&models.Member{},
		&models.Customer{},
		&models.Supplier{},
		&models.Employee{},
	}
	for _, table := range tables {
		query := identityMatch(r.db.WithContext(ctx).Model(table), name, phone)
		if excludeID != uuid.Nil {
			query = query.Where("id <> ?", excludeID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return false, fmt.Errorf("scanning for duplicates: %w", err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// MatchEmployee returns the employee sharing the trimmed name or phone, or nil
// when no employee matches.
func (r *resolver) MatchEmployee(ctx context.Context, name, phone string) (*models.Employee, error) {
	if strings.TrimSpace(name) == "" && strings.TrimSpace(phone) == "" {
		return nil, nil
	}
	var employee models.Employee
	query := identityMatch(r.db.WithContext(ctx).Model(&models.Employee{}), name, phone)
	if err := query.First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("matching employee: %w", err)
	}
	return &employee, nil
}

// ResolveRole reports which store holds the given id. Members are checked
// first, then customers, employees, and suppliers.
func (r *resolver) ResolveRole(ctx context.Context, id uuid.UUID) (enums.CounterpartyRole, error) {
	if id == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "counterparty id is required")
	}

	lookups := []struct {
		role  enums.CounterpartyRole
		model any
	}{
		{enums.CounterpartyRoleMember, &models.Member{}},
		{enums.CounterpartyRoleCustomer, &models.Customer{}},
		{enums.CounterpartyRoleEmployee, &models.Employee{}},
		{enums.CounterpartyRoleSupplier, &models.Supplier{}},
	}
	for _, lookup := range lookups {
		var count int64
		if err := r.db.WithContext(ctx).Model(lookup.model).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("resolving counterparty role: %w", err)
		}
		if count > 0 {
			return lookup.role, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeNotFound, "counterparty not found")
}

// LinkedExternalDebt sums the stored debt of every member and customer whose
// trimmed name or phone matches the employee's. The link is a heuristic kept
// for staff who also hold a membership or buy on credit.
func (r *resolver) LinkedExternalDebt(ctx context.Context, employee *models.Employee) (int64, error) {
	if employee == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "employee is required")
	}
	if strings.TrimSpace(employee.Name) == "" && strings.TrimSpace(employee.Phone) == "" {
		return 0, nil
	}

	var total int64
	for _, table := range []any{&models.Member{}, &models.Customer{}} {
		var sum *int64
		query := identityMatch(r.db.WithContext(ctx).Model(table), employee.Name, employee.Phone)
		if err := query.Select("SUM(total_debt_cents)").Scan(&sum).Error; err != nil {
			return 0, fmt.Errorf("summing linked debt: %w", err)
		}
		if sum != nil {
			total += *sum
		}
	}
	return total, nil
}
