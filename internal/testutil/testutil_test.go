package testutil_test

import (
	"testing"

	"moneta/internal/errors"
	"moneta/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "categories", "budgets", "expenses", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsIsolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	testutil.CreateTestUser(t, first)

	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	var count int64
	second.Table("users").Count(&count)
	if count != 0 {
		t.Errorf("expected a fresh database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUserWithAnchor(t, db, 15)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}
	if user.CycleAnchorDay != 15 {
		t.Errorf("expected anchor day 15, got %d", user.CycleAnchorDay)
	}

	category := testutil.CreateTestCategory(t, db, user.ID)
	w := testutil.Window(t, "2024-03-15", "2024-04-14")
	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, "250.50", w)

	reloaded := testutil.ReloadBudget(t, db, budget.ID)
	if got := reloaded.Window().String(); got != "2024-03-15..2024-04-14" {
		t.Errorf("expected window to survive a round trip, got %s", got)
	}
	if !reloaded.Amount.Equal(budget.Amount) {
		t.Errorf("expected amount %s, got %s", budget.Amount, reloaded.Amount)
	}

	expense := testutil.CreateTestExpense(t, db, user.ID, category.ID, "12.30", testutil.Day(2024, 3, 20))
	if expense.ID == "" {
		t.Fatal("expense should have an ID")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrBudgetNotFound, "custom message")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
