package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moneta/internal/cycle"
	"moneta/internal/database"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// profileService applies profile changes and keeps budgets on the user's
// cycle when the anchor day moves.
type profileService struct {
	db       *gorm.DB
	users    UserDirectory
	migrator CycleMigrator
}

// NewProfileService creates a new ProfileServicer.
func NewProfileService(db *gorm.DB, users UserDirectory, migrator CycleMigrator) ProfileServicer {
	return &profileService{db: db, users: users, migrator: migrator}
}

// UpdateProfile persists the requested changes. A new anchor day is
// written and the open budgets migrated in one transaction, so a failed
// migration leaves the old anchor day in place.
func (s *profileService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*ProfileResult, error) {
	if update.CycleAnchorDay != nil && !cycle.ValidAnchorDay(*update.CycleAnchorDay) {
		return nil, apperrors.ErrInvalidAnchorDay
	}
	if update.Password != nil && *update.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password cannot be empty")
	}

	result := &ProfileResult{}
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if update.Name != nil {
			updates["name"] = *update.Name
		}
		if update.Email != nil {
			email := strings.ToLower(*update.Email)
			if email != user.Email {
				var count int64
				if err := tx.Model(&models.User{}).
					Where("email = ? AND id <> ?", email, userID).
					Count(&count).Error; err != nil {
					return apperrors.Storage(err)
				}
				if count > 0 {
					return apperrors.ErrDuplicateEmail
				}
				updates["email"] = email
			}
		}
		if update.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			updates["password"] = string(hash)
		}

		anchorChanged := update.CycleAnchorDay != nil && *update.CycleAnchorDay != user.CycleAnchorDay
		if anchorChanged {
			updates["cycle_anchor_day"] = *update.CycleAnchorDay
		}

		if len(updates) > 0 {
			if err := tx.Model(user).Updates(updates).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperrors.ErrDuplicateEmail
				}
				return apperrors.Storage(err)
			}
		}

		if anchorChanged {
			moved, err := s.migrator.OnUserAnchorDayChanged(ctx, userID, *update.CycleAnchorDay)
			if err != nil {
				return err
			}
			result.MigratedBudgets = moved
		}

		result.User, err = s.users.GetUserByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
