package repository

import (
	"context"

	"blackdonut/internal/models"
	"blackdonut/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository defines the like and save toggles and saved-food reads.
type EngagementRepository interface {
	ToggleLike(ctx context.Context, userID, foodID uint) (models.ToggleResult, error)
	ToggleSave(ctx context.Context, userID, foodID uint) (models.ToggleResult, error)
	ListSavedFoods(ctx context.Context, userID uint) ([]*models.Food, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new EngagementRepository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) ToggleLike(ctx context.Context, userID, foodID uint) (models.ToggleResult, error) {
	defer observability.TrackQuery("toggle", "likes")()
	return r.toggle(ctx, userID, foodID, likeCountColumn, &models.Like{UserID: userID, FoodID: foodID})
}

func (r *engagementRepository) ToggleSave(ctx context.Context, userID, foodID uint) (models.ToggleResult, error) {
	defer observability.TrackQuery("toggle", "saves")()
	return r.toggle(ctx, userID, foodID, savesCountColumn, &models.Save{UserID: userID, FoodID: foodID})
}

// toggle deletes the (user, food) row if present, otherwise inserts it, and
// moves the counter only when a row actually changed. The insert uses
// ON CONFLICT DO NOTHING so a concurrent toggle that already created the row
// leaves the state active without counting twice.
func (r *engagementRepository) toggle(ctx context.Context, userID, foodID uint, counter string, row interface{}) (models.ToggleResult, error) {
	var result models.ToggleResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Food{}).Where("id = ?", foodID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}

		del := tx.Where("user_id = ? AND food_id = ?", userID, foodID).Delete(row)
		if del.Error != nil {
			return del.Error
		}

		if del.RowsAffected > 0 {
			if err := decrementCounter(tx, foodID, counter); err != nil {
				return err
			}
			result.Active = false
		} else {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected > 0 {
				if err := incrementCounter(tx, foodID, counter); err != nil {
					return err
				}
			}
			result.Active = true
		}

		count, err := readCounter(tx, foodID, counter)
		if err != nil {
			return err
		}
		result.Count = count
		return nil
	})

	return result, err
}

// ListSavedFoods returns the user's saved foods, most recently saved first.
func (r *engagementRepository) ListSavedFoods(ctx context.Context, userID uint) ([]*models.Food, error) {
	var foods []*models.Food
	err := r.db.WithContext(ctx).
		Preload("FoodPartner").
		Joins("JOIN saves ON saves.food_id = foods.id").
		Where("saves.user_id = ?", userID).
		Order("saves.created_at desc").
		Order("saves.id desc").
		Find(&foods).Error
	return foods, err
}
