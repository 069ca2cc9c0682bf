package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/cycle"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// ProfileUpdate carries the profile fields a user wants to change. Nil
// fields are left as they are.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Password       *string
	CycleAnchorDay *int
}

// ProfileResult is the outcome of a profile update.
type ProfileResult struct {
	User            *models.User `json:"user"`
	MigratedBudgets int          `json:"migrated_budgets"`
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, name string, anchorDay int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	LockUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// ProfileServicer updates a user's own profile. Changing the anchor day
// re-anchors the user's open budgets in the same transaction.
type ProfileServicer interface {
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*ProfileResult, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(ctx context.Context, userID, categoryID string, amount decimal.Decimal, description string, date time.Time) (*models.Expense, error)
	GetCurrentCycleExpenses(ctx context.Context, userID string) ([]models.Expense, error)
	GetExpense(ctx context.Context, userID, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, userID, expenseID, categoryID string, amount decimal.Decimal, description string, date time.Time) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
	GetTotal(ctx context.Context, userID string, from, to time.Time) (*models.ExpenseTotal, error)
	GetCategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]models.CategoryTotal, error)
	GetDailyTotals(ctx context.Context, userID string, from, to time.Time) ([]models.DailyTotal, error)
	SpentInWindow(ctx context.Context, userID, categoryID string, w cycle.Window) (decimal.Decimal, error)
}

// BudgetRequest is one category's requested limit for the current cycle.
type BudgetRequest struct {
	CategoryID string
	Amount     decimal.Decimal
}

// BudgetProgress contains spending vs budget data for a budget's own cycle.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	StartDate  string          `json:"start_date"`
	EndDate    string          `json:"end_date"`
	Budgeted   decimal.Decimal `json:"budgeted" swaggertype:"string"`
	Spent      decimal.Decimal `json:"spent" swaggertype:"string"`
	Remaining  decimal.Decimal `json:"remaining" swaggertype:"string"`
	Percentage float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	UpsertBudget(ctx context.Context, userID string, req BudgetRequest) (*models.BudgetView, error)
	UpsertBudgets(ctx context.Context, userID string, reqs []BudgetRequest) ([]models.BudgetView, error)
	GetCurrentCycleBudgets(ctx context.Context, userID string) ([]models.BudgetView, error)
	GetAllBudgets(ctx context.Context, userID string) ([]models.BudgetView, error)
	GetBudget(ctx context.Context, userID, budgetID string) (*models.BudgetView, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, req BudgetRequest) (*models.BudgetView, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
	GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error)
}

// CycleMigrator re-anchors a user's open budgets after their anchor day
// changed. It returns how many budgets were moved.
type CycleMigrator interface {
	OnUserAnchorDayChanged(ctx context.Context, userID string, newAnchorDay int) (int, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

// UserDirectory resolves users for the budget core. LockUserByID holds the
// user's row until the transaction carried by ctx ends, so the anchor day
// it returns cannot change underneath that transaction.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	LockUserByID(ctx context.Context, id string) (*models.User, error)
}

// CategoryDirectory resolves a user's categories for the budget core.
type CategoryDirectory interface {
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
}

// SpendingLedger sums what was spent in a category during a cycle.
type SpendingLedger interface {
	SpentInWindow(ctx context.Context, userID, categoryID string, w cycle.Window) (decimal.Decimal, error)
}

// BudgetStore is the persistence the budget core runs on. Methods called
// with the ctx passed into Transaction's fn join that transaction.
// FindOverlapping returns (nil, nil) when nothing overlaps.
type BudgetStore interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	FindByUser(ctx context.Context, userID string) ([]models.Budget, error)
	FindByID(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	FindOverlapping(ctx context.Context, userID, categoryID string, w cycle.Window) (*models.Budget, error)
	FindInRange(ctx context.Context, userID string, w cycle.Window) ([]models.Budget, error)
	Create(ctx context.Context, budget *models.Budget) error
	UpdateAmount(ctx context.Context, budget *models.Budget) error
	UpdateDates(ctx context.Context, budgets []*models.Budget) error
	Delete(ctx context.Context, budget *models.Budget) error
}
