package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/clock"
	"moneta/internal/cycle"
	apperrors "moneta/internal/errors"
	"moneta/internal/keylock"
	"moneta/internal/logger"
	"moneta/internal/models"
)

// budgetService keeps at most one budget per (user, category, cycle).
type budgetService struct {
	store      BudgetStore
	users      UserDirectory
	categories CategoryDirectory
	spending   SpendingLedger
	clock      clock.Clock
	locks      *keylock.Locker
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(
	store BudgetStore,
	users UserDirectory,
	categories CategoryDirectory,
	spending SpendingLedger,
	clk clock.Clock,
) BudgetServicer {
	return &budgetService{
		store:      store,
		users:      users,
		categories: categories,
		spending:   spending,
		clock:      clk,
		locks:      keylock.New(),
	}
}

func budgetLockKey(userID, categoryID string) string {
	return userID + ":" + categoryID
}

// UpsertBudget sets the category's limit for the current cycle, creating
// the cycle's budget if it does not exist yet.
func (s *budgetService) UpsertBudget(ctx context.Context, userID string, req BudgetRequest) (*models.BudgetView, error) {
	views, err := s.upsert(ctx, userID, []BudgetRequest{req})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpsertBudgets applies several upserts in one transaction. Nothing is
// written unless every request is valid and every category resolves.
func (s *budgetService) UpsertBudgets(ctx context.Context, userID string, reqs []BudgetRequest) ([]models.BudgetView, error) {
	if len(reqs) == 0 {
		return nil, apperrors.ErrEmptyBudgetBatch
	}
	return s.upsert(ctx, userID, reqs)
}

func (s *budgetService) upsert(ctx context.Context, userID string, reqs []BudgetRequest) ([]models.BudgetView, error) {
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if !models.ValidAmount(req.Amount) {
			return nil, apperrors.ErrInvalidBudgetAmount
		}
		if _, dup := seen[req.CategoryID]; dup {
			return nil, apperrors.ErrDuplicateCategoryInBatch
		}
		seen[req.CategoryID] = struct{}{}
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	categories := make([]*models.Category, len(reqs))
	keys := make([]string, len(reqs))
	for i, req := range reqs {
		category, err := s.categories.GetCategoryByID(ctx, userID, req.CategoryID)
		if err != nil {
			return nil, err
		}
		categories[i] = category
		keys[i] = budgetLockKey(userID, category.ID)
	}

	unlock := s.locks.Lock(keys...)
	defer unlock()

	var budgets []models.Budget
	write := func() error {
		budgets = budgets[:0]
		return s.store.Transaction(ctx, func(ctx context.Context) error {
			// Anchor day and clock are read per attempt, under the user row lock.
			user, err := s.users.LockUserByID(ctx, userID)
			if err != nil {
				return err
			}
			now := s.clock.Now()
			window := cycle.Compute(user.CycleAnchorDay, now)

			for i, req := range reqs {
				budget, err := s.upsertOne(ctx, userID, categories[i], req.Amount, window, now)
				if err != nil {
					return err
				}
				budgets = append(budgets, *budget)
			}
			return nil
		})
	}

	err := write()
	if errors.Is(err, apperrors.ErrBudgetConflict) {
		logger.Get().Warnw("budget upsert lost a race, retrying",
			"user_id", userID,
			"categories", len(reqs),
		)
		err = write()
	}
	if err != nil {
		return nil, err
	}

	return models.BudgetViews(budgets), nil
}

// upsertOne runs inside the caller's transaction.
func (s *budgetService) upsertOne(
	ctx context.Context,
	userID string,
	category *models.Category,
	amount decimal.Decimal,
	window cycle.Window,
	now time.Time,
) (*models.Budget, error) {
	existing, err := s.store.FindOverlapping(ctx, userID, category.ID, window)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Amount = amount
		existing.UpdatedAt = now
		if err := s.store.UpdateAmount(ctx, existing); err != nil {
			return nil, err
		}
		existing.Category = *category
		return existing, nil
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: category.ID,
		Amount:     amount,
		StartDate:  window.Start,
		EndDate:    window.End,
	}
	budget.CreatedAt = now
	budget.UpdatedAt = now
	if err := s.store.Create(ctx, budget); err != nil {
		return nil, err
	}
	budget.Category = *category
	return budget, nil
}

// GetCurrentCycleBudgets returns the budgets whose window overlaps the
// user's cycle for today.
func (s *budgetService) GetCurrentCycleBudgets(ctx context.Context, userID string) ([]models.BudgetView, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	window := cycle.Compute(user.CycleAnchorDay, s.clock.Now())
	budgets, err := s.store.FindInRange(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	return models.BudgetViews(budgets), nil
}

// GetAllBudgets returns every budget the user has, newest cycle first.
func (s *budgetService) GetAllBudgets(ctx context.Context, userID string) ([]models.BudgetView, error) {
	budgets, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.BudgetViews(budgets), nil
}

// GetBudget returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudget(ctx context.Context, userID, budgetID string) (*models.BudgetView, error) {
	budget, err := s.store.FindByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	view := budget.View()
	return &view, nil
}

// UpdateBudget changes a budget's category and amount. The budget keeps
// the window it was created for.
func (s *budgetService) UpdateBudget(ctx context.Context, userID, budgetID string, req BudgetRequest) (*models.BudgetView, error) {
	if !models.ValidAmount(req.Amount) {
		return nil, apperrors.ErrInvalidBudgetAmount
	}

	budget, err := s.store.FindByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	category, err := s.categories.GetCategoryByID(ctx, userID, req.CategoryID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(
		budgetLockKey(userID, budget.CategoryID),
		budgetLockKey(userID, category.ID),
	)
	defer unlock()

	err = s.store.Transaction(ctx, func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, userID, budgetID)
		if err != nil {
			return err
		}

		if current.CategoryID != category.ID {
			other, err := s.store.FindOverlapping(ctx, userID, category.ID, current.Window())
			if err != nil {
				return err
			}
			if other != nil {
				return apperrors.ErrBudgetConflict
			}
		}

		current.CategoryID = category.ID
		current.Amount = req.Amount
		current.UpdatedAt = s.clock.Now()
		if err := s.store.UpdateAmount(ctx, current); err != nil {
			return err
		}
		current.Category = *category
		budget = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := budget.View()
	return &view, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	budget, err := s.store.FindByID(ctx, userID, budgetID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(budgetLockKey(userID, budget.CategoryID))
	defer unlock()

	return s.store.Delete(ctx, budget)
}

// GetBudgetProgress compares what was spent in the budget's category
// during its window with the budgeted amount.
func (s *budgetService) GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.store.FindByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	window := budget.Window()
	spent, err := s.spending.SpentInWindow(ctx, userID, budget.CategoryID, window)
	if err != nil {
		return nil, err
	}

	var percentage float64
	if budget.Amount.IsPositive() {
		percentage = spent.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}

	return &BudgetProgress{
		BudgetID:   budget.ID,
		StartDate:  window.Start.Format(cycle.DateLayout),
		EndDate:    window.End.Format(cycle.DateLayout),
		Budgeted:   budget.Amount,
		Spent:      spent,
		Remaining:  budget.Amount.Sub(spent),
		Percentage: percentage,
	}, nil
}
