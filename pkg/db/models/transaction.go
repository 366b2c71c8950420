package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/samerhaddad/clubledger-backend/pkg/enums"
)

// Transaction records one monetary event. AmountCents is the money actually
// received or paid at commit time; DebtAddedCents is new debt created by the
// event. Rows are immutable except for the purchase correction and expense
// edit paths.
type Transaction struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Kind           enums.TransactionKind `gorm:"column:kind;not null"`
	AmountCents    int64                 `gorm:"column:amount_cents;not null"`
	DiscountCents  int64                 `gorm:"column:discount_cents;not null;default:0"`
	DebtAddedCents int64                 `gorm:"column:debt_added_cents;not null;default:0"`
	Label          string                `gorm:"column:label;not null"`
	MemberID       *uuid.UUID            `gorm:"column:member_id;type:uuid"`
	CustomerID     *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	SupplierID     *uuid.UUID            `gorm:"column:supplier_id;type:uuid"`
	EmployeeID     *uuid.UUID            `gorm:"column:employee_id;type:uuid"`
	Category       *string               `gorm:"column:category"`
	PeriodMonth    *int                  `gorm:"column:period_month"`
	PeriodYear     *int                  `gorm:"column:period_year"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// CounterpartyID returns the single populated link, if any.
func (t Transaction) CounterpartyID() (enums.CounterpartyRole, *uuid.UUID) {
	switch {
	case t.MemberID != nil:
		return enums.CounterpartyRoleMember, t.MemberID
	case t.CustomerID != nil:
		return enums.CounterpartyRoleCustomer, t.CustomerID
	case t.SupplierID != nil:
		return enums.CounterpartyRoleSupplier, t.SupplierID
	case t.EmployeeID != nil:
		return enums.CounterpartyRoleEmployee, t.EmployeeID
	}
	return "", nil
}
