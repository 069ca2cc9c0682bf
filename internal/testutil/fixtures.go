package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moneta/internal/cycle"
	"moneta/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user whose cycles start on the 1st.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithAnchor(t, db, 1)
}

// CreateTestUserWithAnchor creates a user with a hashed password, a unique
// email and the given cycle anchor day.
func CreateTestUserWithAnchor(t *testing.T, db *gorm.DB, anchorDay int) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:          fmt.Sprintf("user%d@test.com", nextID()),
		Password:       string(hash),
		Name:           "Test User",
		IsActive:       true,
		CycleAnchorDay: anchorDay,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates an expense category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   models.CategoryTypeExpense,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget stores a budget for the category over window w.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string, amount string, w cycle.Window) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		StartDate:  w.Start,
		EndDate:    w.End,
	}
	if err := db.Omit("Category").Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestExpense books an expense on the category for the given day.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, categoryID string, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		Date:       cycle.Date(date),
	}
	if err := db.Omit("Category").Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// Window builds a window from two "YYYY-MM-DD" dates.
func Window(t *testing.T, start, end string) cycle.Window {
	t.Helper()

	s, err := time.Parse(cycle.DateLayout, start)
	if err != nil {
		t.Fatalf("bad start date %q: %v", start, err)
	}
	e, err := time.Parse(cycle.DateLayout, end)
	if err != nil {
		t.Fatalf("bad end date %q: %v", end, err)
	}
	return cycle.Window{Start: s, End: e}
}

// ReloadBudget reads a budget back from the database, including
// soft-deleted rows.
func ReloadBudget(t *testing.T, db *gorm.DB, id string) *models.Budget {
	t.Helper()

	var budget models.Budget
	if err := db.Unscoped().Where("id = ?", id).First(&budget).Error; err != nil {
		t.Fatalf("failed to reload budget %s: %v", id, err)
	}
	return &budget
}
