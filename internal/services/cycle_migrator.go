package services

import (
	"context"
	"sort"
	"time"

	"moneta/internal/clock"
	"moneta/internal/cycle"
	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
)

// cycleMigrator moves open budgets onto the windows of a new anchor day.
type cycleMigrator struct {
	store BudgetStore
	users UserDirectory
	clock clock.Clock
}

// NewCycleMigrator creates a new CycleMigrator.
func NewCycleMigrator(store BudgetStore, users UserDirectory, clk clock.Clock) CycleMigrator {
	return &cycleMigrator{store: store, users: users, clock: clk}
}

// OnUserAnchorDayChanged re-anchors every budget of the user that ends
// today or later. Budgets that already ended keep their dates. All moves
// are written in one transaction; when ctx already carries one (the
// profile update) the moves commit or roll back with it.
func (m *cycleMigrator) OnUserAnchorDayChanged(ctx context.Context, userID string, newAnchorDay int) (int, error) {
	if _, err := m.users.GetUserByID(ctx, userID); err != nil {
		return 0, err
	}
	if !cycle.ValidAnchorDay(newAnchorDay) {
		return 0, apperrors.ErrInvalidAnchorDay
	}

	now := m.clock.Now()
	today := cycle.Date(now)

	var moved []*models.Budget
	err := m.store.Transaction(ctx, func(ctx context.Context) error {
		budgets, err := m.store.FindByUser(ctx, userID)
		if err != nil {
			return err
		}

		moved = planMigration(budgets, newAnchorDay, today)
		for _, b := range moved {
			b.UpdatedAt = now
		}
		return m.store.UpdateDates(ctx, moved)
	})
	if err != nil {
		return 0, err
	}

	if len(moved) > 0 {
		logger.Get().Infow("budgets re-anchored",
			"user_id", userID,
			"anchor_day", newAnchorDay,
			"window", cycle.Compute(newAnchorDay, today).String(),
			"moved", len(moved),
		)
	}
	return len(moved), nil
}

// planMigration assigns each open budget (one ending today or later) its
// window under anchorDay and returns the budgets whose dates changed, with
// the new dates set. Closed budgets are never moved.
//
// The earliest open budget of a category takes the window containing
// max(today, start). Each later one takes the window containing its own
// start. A target that would reach back into the category's previous
// budget, open or closed, is pushed to the following window, so a
// category's budgets stay disjoint.
func planMigration(budgets []models.Budget, anchorDay int, today time.Time) []*models.Budget {
	sort.SliceStable(budgets, func(i, j int) bool {
		if budgets[i].CategoryID != budgets[j].CategoryID {
			return budgets[i].CategoryID < budgets[j].CategoryID
		}
		return budgets[i].StartDate.Before(budgets[j].StartDate)
	})

	var (
		changed      []*models.Budget
		prevCategory string
		prevEnd      time.Time
		opened       bool
	)
	for i := range budgets {
		b := &budgets[i]
		current := b.Window()

		if b.CategoryID != prevCategory {
			prevCategory, prevEnd, opened = b.CategoryID, time.Time{}, false
		}
		if current.End.Before(today) {
			if current.End.After(prevEnd) {
				prevEnd = current.End
			}
			continue
		}

		ref := current.Start
		if !opened && ref.Before(today) {
			ref = today
		}
		opened = true

		target := cycle.Compute(anchorDay, ref)
		for !prevEnd.IsZero() && !target.Start.After(prevEnd) {
			target = target.Next(anchorDay)
		}
		prevEnd = target.End

		if current.Equal(target) {
			continue
		}
		b.StartDate = target.Start
		b.EndDate = target.End
		changed = append(changed, b)
	}
	return changed
}
