package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"moneta/internal/database"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(
	ctx context.Context,
	userID string,
	name string,
	categoryType models.CategoryType,
	description string,
	icon string,
	color string,
) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType == "" {
		categoryType = models.CategoryTypeExpense
	}

	db := database.Conn(ctx, s.db)

	// Names are unique per user
	var count int64
	if err := db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID:      userID,
		Name:        name,
		Type:        categoryType,
		Description: description,
		Icon:        icon,
		Color:       color,
	}

	if err := db.Create(category).Error; err != nil {
		return nil, apperrors.Storage(err)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user.
func (s *categoryService) GetUserCategories(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := database.Conn(ctx, s.db).Model(&models.Category{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Storage(err)
	}

	var categories []models.Category
	if err := base.Order("name").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Storage(err)
	}

	result := pagination.NewPageResponse(categories, page, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	err := database.Conn(ctx, s.db).
		Where("id = ? AND user_id = ?", categoryID, userID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return &category, nil
}

// UpdateCategory changes the non-empty fields of a category. Renaming
// keeps names unique per user.
func (s *categoryService) UpdateCategory(
	ctx context.Context,
	userID string,
	categoryID string,
	name string,
	description string,
	icon string,
	color string,
) (*models.Category, error) {
	var category *models.Category
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		category, err = s.GetCategoryByID(ctx, userID, categoryID)
		if err != nil {
			return err
		}

		if name != "" && name != category.Name {
			var count int64
			if err := tx.Model(&models.Category{}).
				Where("user_id = ? AND name = ? AND id <> ?", userID, name, categoryID).
				Count(&count).Error; err != nil {
				return apperrors.Storage(err)
			}
			if count > 0 {
				return apperrors.ErrDuplicateCategory
			}
		}

		// Update fields if provided
		updates := make(map[string]interface{})
		if name != "" {
			updates["name"] = name
		}
		if description != "" {
			updates["description"] = description
		}
		if icon != "" {
			updates["icon"] = icon
		}
		if color != "" {
			updates["color"] = color
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(category).Updates(updates).Error; err != nil {
			return apperrors.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory soft-deletes a category that no budget or expense uses.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		category, err := s.GetCategoryByID(ctx, userID, categoryID)
		if err != nil {
			return err
		}

		for _, model := range []interface{}{&models.Budget{}, &models.Expense{}} {
			var count int64
			if err := tx.Model(model).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
				return apperrors.Storage(err)
			}
			if count > 0 {
				return apperrors.ErrCategoryInUse
			}
		}

		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Storage(err)
		}
		return nil
	})
}
