package models

import (
	"time"

	"github.com/google/uuid"
)

// Product stock only moves through purchases and sales.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	SalePriceCents int64     `gorm:"column:sale_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
