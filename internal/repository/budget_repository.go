// Package repository holds the gorm-backed stores the budget core persists
// through.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneta/internal/cycle"
	"moneta/internal/database"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// BudgetRepository persists budgets with gorm. Every method joins the
// transaction carried by ctx, if any.
type BudgetRepository struct {
	db *gorm.DB
}

// NewBudgetRepository creates a BudgetRepository.
func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// Transaction runs fn in a single transaction. Stores called with the ctx
// handed to fn take part in it.
func (r *BudgetRepository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.Transaction(ctx, r.db, func(txCtx context.Context, _ *gorm.DB) error {
		return fn(txCtx)
	})
}

// FindByUser returns every budget of the user, newest cycle first.
func (r *BudgetRepository) FindByUser(ctx context.Context, userID string) ([]models.Budget, error) {
	var budgets []models.Budget
	err := r.conn(ctx).Preload("Category").
		Where("user_id = ?", userID).
		Order("start_date DESC").Order("id").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return budgets, nil
}

// FindByID returns the budget if it exists and belongs to the user.
func (r *BudgetRepository) FindByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	err := r.conn(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return &budget, nil
}

// FindOverlapping returns the budget of (user, category) whose window
// overlaps w, or nil when there is none. Inside a postgres transaction the
// row is locked until commit.
func (r *BudgetRepository) FindOverlapping(ctx context.Context, userID, categoryID string, w cycle.Window) (*models.Budget, error) {
	q := r.conn(ctx).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Where("start_date <= ? AND end_date >= ?", w.End, w.Start).
		Order("start_date DESC")
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var budgets []models.Budget
	if err := q.Limit(1).Find(&budgets).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}
	return &budgets[0], nil
}

// FindInRange returns the user's budgets whose window overlaps w.
func (r *BudgetRepository) FindInRange(ctx context.Context, userID string, w cycle.Window) ([]models.Budget, error) {
	var budgets []models.Budget
	err := r.conn(ctx).Preload("Category").
		Where("user_id = ?", userID).
		Where("start_date <= ? AND end_date >= ?", w.End, w.Start).
		Order("start_date").Order("id").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return budgets, nil
}

// Create inserts a budget. A unique violation on idx_budgets_cycle is
// reported as ErrBudgetConflict.
func (r *BudgetRepository) Create(ctx context.Context, budget *models.Budget) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(apperrors.ErrBudgetConflict, err)
		}
		return apperrors.Storage(err)
	}
	return nil
}

// UpdateAmount writes the budget's category, amount and updated_at. Dates
// are left alone.
func (r *BudgetRepository) UpdateAmount(ctx context.Context, budget *models.Budget) error {
	res := r.conn(ctx).Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		Updates(map[string]interface{}{
			"category_id": budget.CategoryID,
			"amount":      budget.Amount,
			"updated_at":  budget.UpdatedAt,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(apperrors.ErrBudgetConflict, res.Error)
		}
		return apperrors.Storage(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// UpdateDates rewrites start, end and updated_at of every given budget in
// one transaction. Either all rows change or none do.
func (r *BudgetRepository) UpdateDates(ctx context.Context, budgets []*models.Budget) error {
	if len(budgets) == 0 {
		return nil
	}
	return r.Transaction(ctx, func(ctx context.Context) error {
		for _, b := range budgets {
			res := r.conn(ctx).Model(&models.Budget{}).
				Where("id = ?", b.ID).
				Updates(map[string]interface{}{
					"start_date": b.StartDate,
					"end_date":   b.EndDate,
					"updated_at": b.UpdatedAt,
				})
			if res.Error != nil {
				if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
					return apperrors.Wrap(apperrors.ErrBudgetConflict, res.Error)
				}
				return apperrors.Storage(res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.WithMessage(apperrors.ErrBudgetNotFound, "Budget "+b.ID+" disappeared during migration")
			}
		}
		return nil
	})
}

// Delete soft-deletes a budget. Soft-deleted rows are invisible to every
// finder, so a later upsert in the same cycle starts a fresh budget.
func (r *BudgetRepository) Delete(ctx context.Context, budget *models.Budget) error {
	if err := r.conn(ctx).Delete(budget).Error; err != nil {
		return apperrors.Storage(err)
	}
	return nil
}
