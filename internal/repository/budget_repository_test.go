package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/cycle"
	"moneta/internal/models"
	"moneta/internal/testutil"
)

func newBudget(userID, categoryID string, w cycle.Window) *models.Budget {
	return &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     decimal.NewFromInt(100),
		StartDate:  w.Start,
		EndDate:    w.End,
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("same_cycle_twice_is_a_conflict", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := NewBudgetRepository(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		w := testutil.Window(t, "2024-03-15", "2024-04-14")

		testutil.AssertNoError(t, repo.Create(ctx, newBudget(user.ID, cat.ID, w)))

		err := repo.Create(ctx, newBudget(user.ID, cat.ID, w))
		testutil.AssertAppError(t, err, "BUDGET_CONFLICT")
	})

	t.Run("deleted_row_does_not_block", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		repo := NewBudgetRepository(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID)
		w := testutil.Window(t, "2024-03-15", "2024-04-14")

		first := newBudget(user.ID, cat.ID, w)
		testutil.AssertNoError(t, repo.Create(ctx, first))
		testutil.AssertNoError(t, repo.Delete(ctx, first))

		testutil.AssertNoError(t, repo.Create(ctx, newBudget(user.ID, cat.ID, w)))
	})
}

func TestFindOverlapping(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := NewBudgetRepository(db)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID)

	march := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "1", testutil.Window(t, "2024-03-01", "2024-03-31"))
	april := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "1", testutil.Window(t, "2024-04-01", "2024-04-30"))

	tests := []struct {
		name   string
		window cycle.Window
		wantID string
	}{
		{"inside", testutil.Window(t, "2024-03-10", "2024-03-12"), march.ID},
		{"touches_last_day", testutil.Window(t, "2024-03-31", "2024-04-01"), april.ID},
		{"before", testutil.Window(t, "2024-02-01", "2024-02-29"), ""},
		{"after", testutil.Window(t, "2024-05-01", "2024-05-31"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindOverlapping(ctx, user.ID, cat.ID, tt.window)
			testutil.AssertNoError(t, err)

			switch {
			case tt.wantID == "" && got != nil:
				t.Errorf("expected no overlap, got %s", got.ID)
			case tt.wantID != "" && (got == nil || got.ID != tt.wantID):
				t.Errorf("expected %s, got %v", tt.wantID, got)
			}
		})
	}
}

func TestUpdateDates(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	repo := NewBudgetRepository(db)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID)
	budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, "75.5", testutil.Window(t, "2024-03-15", "2024-04-14"))

	target := testutil.Window(t, "2024-03-01", "2024-03-31")
	budget.StartDate, budget.EndDate = target.Start, target.End
	budget.Amount = decimal.NewFromInt(1)
	budget.UpdatedAt = time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)

	testutil.AssertNoError(t, repo.UpdateDates(ctx, []*models.Budget{budget}))

	stored := testutil.ReloadBudget(t, db, budget.ID)
	if got := stored.Window().String(); got != "2024-03-01..2024-03-31" {
		t.Errorf("expected new window, got %s", got)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("75.5")) {
		t.Errorf("expected amount untouched, got %s", stored.Amount)
	}
	if !stored.UpdatedAt.Equal(budget.UpdatedAt) {
		t.Errorf("expected updated_at %v, got %v", budget.UpdatedAt, stored.UpdatedAt)
	}
}
