package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a non-member counterparty that can carry debt toward the
// business. A zero-debt shadow row is also created when a membership leaves
// residual debt, so cross-entity debt reports see every debtor identity.
type Customer struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	Phone          string    `gorm:"column:phone;not null"`
	TotalDebtCents int64     `gorm:"column:total_debt_cents;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
