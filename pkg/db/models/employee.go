package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee has no stored balance; the available balance is always derived
// from salary, payroll transactions and linked external debt.
type Employee struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Phone       string    `gorm:"column:phone;not null"`
	JobTitle    string    `gorm:"column:job_title;not null"`
	SalaryCents int64     `gorm:"column:salary_cents;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
