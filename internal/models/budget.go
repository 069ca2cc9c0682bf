package models

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/cycle"
)

// Budget is one category's spending limit for exactly one cycle.
//
// Windows of the same (user, category) never overlap. The service layer
// enforces that; idx_budgets_cycle only catches two writers racing to open
// the same cycle.
type Budget struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_cycle,where:deleted_at IS NULL;index:idx_budgets_user_end,priority:1" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_cycle,where:deleted_at IS NULL" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount" swaggertype:"string"`
	StartDate  time.Time       `gorm:"type:date;not null;uniqueIndex:idx_budgets_cycle,where:deleted_at IS NULL" json:"start_date"`
	EndDate    time.Time       `gorm:"type:date;not null;index:idx_budgets_user_end,priority:2" json:"end_date"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
}

// Window returns the cycle the budget is stored against.
func (b *Budget) Window() cycle.Window {
	return cycle.Window{Start: cycle.Date(b.StartDate), End: cycle.Date(b.EndDate)}
}

// BudgetView is the shape budgets are returned to callers in.
type BudgetView struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// View renders the budget for output. Category must be loaded for the name
// to be filled in.
func (b *Budget) View() BudgetView {
	return BudgetView{
		ID:           b.ID,
		CategoryID:   b.CategoryID,
		CategoryName: b.Category.Name,
		Amount:       b.Amount,
		StartDate:    b.StartDate.Format(cycle.DateLayout),
		EndDate:      b.EndDate.Format(cycle.DateLayout),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// BudgetViews renders a slice of budgets, never returning nil.
func BudgetViews(budgets []Budget) []BudgetView {
	views := make([]BudgetView, 0, len(budgets))
	for i := range budgets {
		views = append(views, budgets[i].View())
	}
	return views
}
