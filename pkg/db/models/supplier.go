package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier carries the amount the business owes it in TotalDebtCents.
type Supplier struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	Phone          string    `gorm:"column:phone;not null"`
	Category       *string   `gorm:"column:category"`
	TotalDebtCents int64     `gorm:"column:total_debt_cents;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
