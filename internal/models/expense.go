package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spending entry booked against a category.
type Expense struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1" json:"user_id"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount" swaggertype:"string"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"type:date;not null;index:idx_expenses_user_date,priority:2" json:"date"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// ExpenseTotal is the sum of a user's expenses dated inside a period.
type ExpenseTotal struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Total     decimal.Decimal `json:"total" swaggertype:"string"`
}

// CategoryTotal is the spending on one category inside a period.
type CategoryTotal struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total" swaggertype:"string"`
}

// DailyTotal is the spending on one calendar day.
type DailyTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total" swaggertype:"string"`
}
