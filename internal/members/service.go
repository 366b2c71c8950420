package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samerhaddad/clubledger-backend/internal/customers"
	"github.com/samerhaddad/clubledger-backend/internal/identity"
	"github.com/samerhaddad/clubledger-backend/internal/ledger"
	"github.com/samerhaddad/clubledger-backend/pkg/db/models"
	"github.com/samerhaddad/clubledger-backend/pkg/enums"
	pkgerrors "github.com/samerhaddad/clubledger-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes member lifecycle operations. Registration and renewal are
// compound writes: the membership transaction, the debt adjustment, and the
// optional shadow customer land in one database transaction.
type Service interface {
	RegisterOrRenew(ctx context.Context, input RegisterInput) (*RegistrationResult, error)
	Update(ctx context.Context, memberID uuid.UUID, input UpdateInput) (*models.Member, error)
	SetStatus(ctx context.Context, memberID uuid.UUID, status enums.MemberStatus) (*models.Member, error)
	Delete(ctx context.Context, memberID uuid.UUID) error
	Get(ctx context.Context, memberID uuid.UUID) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
}

// RegisterInput carries a registration or renewal request. MemberID set means
// renewal; the debt produced is added on top of the member's existing balance.
type RegisterInput struct {
	MemberID      *uuid.UUID
	Name          string
	Phone         string
	Plan          string
	PlanMonths    int
	PriceCents    int64
	DiscountCents int64
	StartDate     time.Time
	Mode          enums.PaymentMode
	PaidCents     int64
}

// UpdateInput is an edit-only change: it never creates a transaction and
// never touches the member's debt.
type UpdateInput struct {
	Name       *string
	Phone      *string
	Plan       *string
	PlanMonths *int
	StartDate  *time.Time
}

// RegistrationResult reports the committed member and transaction.
type RegistrationResult struct {
	Member      *models.Member
	Transaction *models.Transaction
}

type service struct {
	repo      Repository
	customers customers.Repository
	ledger    ledger.Repository
	resolver  identity.Resolver
	tx        txRunner
}

// NewService constructs a member service instance.
func NewService(repo Repository, customerRepo customers.Repository, ledgerRepo ledger.Repository, resolver identity.Resolver, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:      repo,
		customers: customerRepo,
		ledger:    ledgerRepo,
		resolver:  resolver,
		tx:        tx,
	}, nil
}

// RegisterOrRenew commits a membership registration or renewal.
func (s *service) RegisterOrRenew(ctx context.Context, input RegisterInput) (*RegistrationResult, error) {
	paid, debt, err := ledger.SettleInvoice(input.PriceCents, input.DiscountCents, input.Mode, input.PaidCents)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member name is required")
	}
	if strings.TrimSpace(input.Plan) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
	}
	if input.PlanMonths <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan_months must be positive")
	}
	if input.StartDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start_date is required")
	}

	isRenewal := input.MemberID != nil

	if !isRenewal {
		duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, uuid.Nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
		}
		if duplicate {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
		}
	}

	attributed, err := s.resolver.MatchEmployee(ctx, name, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "employee attribution")
	}

	result := &RegistrationResult{}
	endDate := input.StartDate.AddDate(0, input.PlanMonths, 0)

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customerRepo := s.customers.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)

		var member *models.Member
		if isRenewal {
			existing, err := repo.FindByID(ctx, *input.MemberID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
			}
			existing.Plan = input.Plan
			existing.PlanMonths = input.PlanMonths
			existing.PriceCents = input.PriceCents
			existing.DiscountCents = input.DiscountCents
			existing.StartDate = input.StartDate
			existing.EndDate = endDate
			// renewal debt stacks on top of the existing balance
			existing.TotalDebtCents += debt
			if err := repo.Update(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update member")
			}
			member = existing
		} else {
			member = &models.Member{
				Name:           name,
				Phone:          phone,
				Plan:           input.Plan,
				PlanMonths:     input.PlanMonths,
				PriceCents:     input.PriceCents,
				DiscountCents:  input.DiscountCents,
				TotalDebtCents: debt,
				StartDate:      input.StartDate,
				EndDate:        endDate,
				Status:         enums.MemberStatusActive,
			}
			if err := repo.Create(ctx, member); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert member")
			}
		}

		txn := &models.Transaction{
			Kind:           enums.TransactionKindMembership,
			AmountCents:    paid,
			DiscountCents:  input.DiscountCents,
			DebtAddedCents: debt,
			Label:          fmt.Sprintf("Membership %s - %s", input.Plan, member.Name),
			MemberID:       &member.ID,
		}
		if attributed != nil {
			txn.EmployeeID = &attributed.ID
		}
		if err := ledgerRepo.Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
		}

		if debt > 0 {
			shadow, err := customerRepo.FindByIdentity(ctx, member.Name, member.Phone)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find shadow customer")
			}
			if shadow == nil {
				// zero-balance shadow row so cross-entity debt views see the identity
				if err := customerRepo.Create(ctx, &models.Customer{
					Name:  member.Name,
					Phone: member.Phone,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert shadow customer")
				}
			}
		}

		result.Member = member
		result.Transaction = txn
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// Update applies an edit-only change to the member record.
func (s *service) Update(ctx context.Context, memberID uuid.UUID, input UpdateInput) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}

	if input.Name != nil || input.Phone != nil {
		name := member.Name
		phone := member.Phone
		if input.Name != nil {
			name = strings.TrimSpace(*input.Name)
		}
		if input.Phone != nil {
			phone = strings.TrimSpace(*input.Phone)
		}
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "member name is required")
		}
		duplicate, err := s.resolver.IsDuplicate(ctx, name, phone, member.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate check")
		}
		if duplicate {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a person with this name or phone already exists")
		}
		member.Name = name
		member.Phone = phone
	}
	if input.Plan != nil {
		if strings.TrimSpace(*input.Plan) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
		}
		member.Plan = *input.Plan
	}
	if input.PlanMonths != nil {
		if *input.PlanMonths <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan_months must be positive")
		}
		member.PlanMonths = *input.PlanMonths
	}
	if input.StartDate != nil {
		member.StartDate = *input.StartDate
	}
	member.EndDate = member.StartDate.AddDate(0, member.PlanMonths, 0)

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update member")
	}
	return member, nil
}

// SetStatus toggles the member between active and frozen.
func (s *service) SetStatus(ctx context.Context, memberID uuid.UUID, status enums.MemberStatus) (*models.Member, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid member status %q", status))
	}
	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	member.Status = status
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update member")
	}
	return member, nil
}

// Delete removes a member unless debt is still outstanding.
func (s *service) Delete(ctx context.Context, memberID uuid.UUID) error {
	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	if member.TotalDebtCents != 0 {
		return pkgerrors.New(pkgerrors.CodeOutstandingDebt, "member still has outstanding debt")
	}
	if err := s.repo.DeleteByID(ctx, memberID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete member")
	}
	return nil
}

func (s *service) Get(ctx context.Context, memberID uuid.UUID) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}

func (s *service) List(ctx context.Context) ([]models.Member, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list members")
	}
	return out, nil
}
