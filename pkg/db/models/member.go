package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/samerhaddad/clubledger-backend/pkg/enums"
)

// Member is a subscribed person with a running debt balance.
type Member struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name           string             `gorm:"column:name;not null"`
	Phone          string             `gorm:"column:phone;not null"`
	Plan           string             `gorm:"column:plan;not null"`
	PlanMonths     int                `gorm:"column:plan_months;not null;default:1"`
	PriceCents     int64              `gorm:"column:price_cents;not null"`
	DiscountCents  int64              `gorm:"column:discount_cents;not null;default:0"`
	TotalDebtCents int64              `gorm:"column:total_debt_cents;not null;default:0"`
	StartDate      time.Time          `gorm:"column:start_date;not null"`
	EndDate        time.Time          `gorm:"column:end_date;not null"`
	Status         enums.MemberStatus `gorm:"column:status;not null;default:active"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
