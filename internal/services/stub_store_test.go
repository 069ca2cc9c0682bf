package services

import (
	"context"
	"sort"
	"sync"

	"moneta/internal/cycle"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/uuid"
)

// memStore is an in-memory BudgetStore. Transaction runs fn directly and
// does not roll back; tests that need rollback use the gorm repository.
type memStore struct {
	mu      sync.Mutex
	budgets map[string]models.Budget

	// beforeCreate, when set, runs before every insert. Returning an error
	// aborts the insert.
	beforeCreate func(s *memStore, b *models.Budget) error
	// onBegin, when set, runs at the start of every transaction.
	onBegin func()

	creates int
	updates int
}

func newMemStore() *memStore {
	return &memStore{budgets: make(map[string]models.Budget)}
}

// put stores b as if another writer had committed it.
func (s *memStore) put(b models.Budget) models.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New()
	}
	s.budgets[b.ID] = b
	return b
}

func (s *memStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.onBegin != nil {
		s.onBegin()
	}
	return fn(ctx)
}

func (s *memStore) FindByUser(_ context.Context, userID string) ([]models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (s *memStore) FindByID(_ context.Context, userID, budgetID string) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetID]
	if !ok || b.UserID != userID {
		return nil, apperrors.ErrBudgetNotFound
	}
	return &b, nil
}

func (s *memStore) FindOverlapping(_ context.Context, userID, categoryID string, w cycle.Window) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.Budget
	for _, b := range s.budgets {
		if b.UserID != userID || b.CategoryID != categoryID || !b.Window().Overlaps(w) {
			continue
		}
		if found == nil || b.StartDate.After(found.StartDate) {
			found = &b
		}
	}
	return found, nil
}

func (s *memStore) FindInRange(_ context.Context, userID string, w cycle.Window) ([]models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Budget
	for _, b := range s.budgets {
		if b.UserID == userID && b.Window().Overlaps(w) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, budget *models.Budget) error {
	s.mu.Lock()
	s.creates++
	hook := s.beforeCreate
	s.mu.Unlock()

	if hook != nil {
		if err := hook(s, budget); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == budget.UserID && b.CategoryID == budget.CategoryID && b.StartDate.Equal(budget.StartDate) {
			return apperrors.ErrBudgetConflict
		}
	}
	if budget.ID == "" {
		budget.ID = uuid.New()
	}
	s.budgets[budget.ID] = *budget
	return nil
}

func (s *memStore) UpdateAmount(_ context.Context, budget *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budget.ID]
	if !ok {
		return apperrors.ErrBudgetNotFound
	}
	s.updates++
	b.CategoryID = budget.CategoryID
	b.Amount = budget.Amount
	b.UpdatedAt = budget.UpdatedAt
	s.budgets[b.ID] = b
	return nil
}

func (s *memStore) UpdateDates(_ context.Context, budgets []*models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, budget := range budgets {
		b, ok := s.budgets[budget.ID]
		if !ok {
			return apperrors.ErrBudgetNotFound
		}
		s.updates++
		b.StartDate = budget.StartDate
		b.EndDate = budget.EndDate
		b.UpdatedAt = budget.UpdatedAt
		s.budgets[b.ID] = b
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, budget *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.budgets, budget.ID)
	return nil
}

// staticUsers and staticCategories resolve from fixed maps.
type staticUsers map[string]*models.User

func (u staticUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := u[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (u staticUsers) LockUserByID(ctx context.Context, id string) (*models.User, error) {
	return u.GetUserByID(ctx, id)
}

type staticCategories map[string]*models.Category

func (c staticCategories) GetCategoryByID(_ context.Context, userID, categoryID string) (*models.Category, error) {
	if cat, ok := c[categoryID]; ok && cat.UserID == userID {
		return cat, nil
	}
	return nil, apperrors.ErrCategoryNotFound
}
