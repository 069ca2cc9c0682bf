package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/clock"
	"moneta/internal/cycle"
	"moneta/internal/database"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// expenseService records spending against categories.
type expenseService struct {
	db         *gorm.DB
	users      UserDirectory
	categories CategoryDirectory
	clock      clock.Clock
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, users UserDirectory, categories CategoryDirectory, clk clock.Clock) ExpenseServicer {
	return &expenseService{db: db, users: users, categories: categories, clock: clk}
}

// CreateExpense books an expense on a category owned by the user. A zero
// date means today.
func (s *expenseService) CreateExpense(
	ctx context.Context,
	userID, categoryID string,
	amount decimal.Decimal,
	description string,
	date time.Time,
) (*models.Expense, error) {
	if !models.ValidAmount(amount) {
		return nil, apperrors.ErrInvalidExpenseAmount
	}
	category, err := s.categories.GetCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = s.clock.Now()
	}

	expense := &models.Expense{
		UserID:      userID,
		CategoryID:  category.ID,
		Amount:      amount,
		Description: description,
		Date:        cycle.Date(date),
	}
	if err := database.Conn(ctx, s.db).Omit("Category").Create(expense).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	expense.Category = category
	return expense, nil
}

// GetCurrentCycleExpenses lists the user's expenses dated inside today's
// cycle, newest first.
func (s *expenseService) GetCurrentCycleExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	window := cycle.Compute(user.CycleAnchorDay, s.clock.Now())

	expenses := []models.Expense{}
	err = database.Conn(ctx, s.db).Preload("Category").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, window.Start, window.End).
		Order("date DESC").Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return expenses, nil
}

// GetExpense loads one of the user's expenses with its category.
func (s *expenseService) GetExpense(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	err := database.Conn(ctx, s.db).Preload("Category").
		Where("id = ? AND user_id = ?", expenseID, userID).
		First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return &expense, nil
}

// UpdateExpense replaces an expense's category, amount, description and
// date. A zero date keeps the current one.
func (s *expenseService) UpdateExpense(
	ctx context.Context,
	userID, expenseID, categoryID string,
	amount decimal.Decimal,
	description string,
	date time.Time,
) (*models.Expense, error) {
	if !models.ValidAmount(amount) {
		return nil, apperrors.ErrInvalidExpenseAmount
	}

	var expense *models.Expense
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		expense, err = s.GetExpense(ctx, userID, expenseID)
		if err != nil {
			return err
		}
		category, err := s.categories.GetCategoryByID(ctx, userID, categoryID)
		if err != nil {
			return err
		}

		expense.CategoryID = category.ID
		expense.Amount = amount
		expense.Description = description
		if !date.IsZero() {
			expense.Date = cycle.Date(date)
		}
		if err := tx.Omit("Category").Save(expense).Error; err != nil {
			return apperrors.Storage(err)
		}
		expense.Category = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense soft-deletes an expense.
func (s *expenseService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	db := database.Conn(ctx, s.db)

	var expense models.Expense
	if err := db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrExpenseNotFound
		}
		return apperrors.Storage(err)
	}

	if err := db.Delete(&expense).Error; err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// GetTotal sums the user's expenses dated between from and to inclusive.
// With neither date given the period is the current cycle.
func (s *expenseService) GetTotal(ctx context.Context, userID string, from, to time.Time) (*models.ExpenseTotal, error) {
	period, err := s.period(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expensesIn(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return &models.ExpenseTotal{
		StartDate: period.Start.Format(cycle.DateLayout),
		EndDate:   period.End.Format(cycle.DateLayout),
		Total:     total,
	}, nil
}

// GetCategoryTotals sums the period's expenses per category, ordered by
// category name. Categories without spending are left out.
func (s *expenseService) GetCategoryTotals(ctx context.Context, userID string, from, to time.Time) ([]models.CategoryTotal, error) {
	period, err := s.period(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expensesIn(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]*models.CategoryTotal)
	for _, e := range expenses {
		ct, ok := byCategory[e.CategoryID]
		if !ok {
			ct = &models.CategoryTotal{CategoryID: e.CategoryID, Total: decimal.Zero}
			if e.Category != nil {
				ct.CategoryName = e.Category.Name
			}
			byCategory[e.CategoryID] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
	}

	totals := make([]models.CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		totals = append(totals, *ct)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].CategoryName != totals[j].CategoryName {
			return totals[i].CategoryName < totals[j].CategoryName
		}
		return totals[i].CategoryID < totals[j].CategoryID
	})
	return totals, nil
}

// GetDailyTotals sums the period's expenses per day, oldest first. Days
// without spending are left out.
func (s *expenseService) GetDailyTotals(ctx context.Context, userID string, from, to time.Time) ([]models.DailyTotal, error) {
	period, err := s.period(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expensesIn(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	// Expenses arrive ordered by date.
	totals := []models.DailyTotal{}
	for _, e := range expenses {
		day := e.Date.Format(cycle.DateLayout)
		if n := len(totals); n > 0 && totals[n-1].Date == day {
			totals[n-1].Total = totals[n-1].Total.Add(e.Amount)
			continue
		}
		totals = append(totals, models.DailyTotal{Date: day, Total: e.Amount})
	}
	return totals, nil
}

// period resolves the date range of a totals query.
func (s *expenseService) period(ctx context.Context, userID string, from, to time.Time) (cycle.Window, error) {
	switch {
	case from.IsZero() && to.IsZero():
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return cycle.Window{}, err
		}
		return cycle.Compute(user.CycleAnchorDay, s.clock.Now()), nil
	case from.IsZero() || to.IsZero():
		return cycle.Window{}, apperrors.ErrInvalidDateRange
	}

	w := cycle.Window{Start: cycle.Date(from), End: cycle.Date(to)}
	if w.Start.After(w.End) {
		return cycle.Window{}, apperrors.ErrInvalidDateRange
	}
	return w, nil
}

func (s *expenseService) expensesIn(ctx context.Context, userID string, w cycle.Window) ([]models.Expense, error) {
	var expenses []models.Expense
	err := database.Conn(ctx, s.db).Preload("Category").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, w.Start, w.End).
		Order("date").Order("created_at").
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return expenses, nil
}

// SpentInWindow sums the category's expenses dated inside w. The amounts
// are added up as decimals rather than with SQL SUM, which SQLite would
// compute in floating point.
func (s *expenseService) SpentInWindow(ctx context.Context, userID, categoryID string, w cycle.Window) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := database.Conn(ctx, s.db).Model(&models.Expense{}).
		Where("user_id = ? AND category_id = ? AND date BETWEEN ? AND ?", userID, categoryID, w.Start, w.End).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, apperrors.Storage(err)
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}
