package repository

import (
	"context"

	"blackdonut/internal/models"
	"blackdonut/internal/observability"

	"gorm.io/gorm"
)

// Counter columns on foods.
const (
	likeCountColumn    = "like_count"
	savesCountColumn   = "saves_count"
	commentCountColumn = "comment_count"
)

// FoodRepository defines interface for food operations
type FoodRepository interface {
	Create(ctx context.Context, food *models.Food) error
	GetByID(ctx context.Context, id uint) (*models.Food, error)
	List(ctx context.Context, limit, offset int) ([]*models.Food, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	ReconcileCounters(ctx context.Context) (int64, error)
}

type foodRepository struct {
	db *gorm.DB
}

// NewFoodRepository creates a new FoodRepository
func NewFoodRepository(db *gorm.DB) FoodRepository {
	return &foodRepository{db: db}
}

func (r *foodRepository) Create(ctx context.Context, food *models.Food) error {
	return r.db.WithContext(ctx).Create(food).Error
}

func (r *foodRepository) GetByID(ctx context.Context, id uint) (*models.Food, error) {
	var food models.Food
	if err := r.db.WithContext(ctx).First(&food, id).Error; err != nil {
		return nil, err
	}
	return &food, nil
}

// List returns the feed, newest first.
func (r *foodRepository) List(ctx context.Context, limit, offset int) ([]*models.Food, error) {
	var foods []*models.Food
	err := r.db.WithContext(ctx).
		Preload("FoodPartner").
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&foods).Error
	return foods, err
}

func (r *foodRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateOne(r.db.WithContext(ctx).Model(&models.Food{}).Where("id = ?", id), fields)
}

// Delete removes the food with its comments, likes and saves in one transaction.
func (r *foodRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&models.Comment{}, &models.Like{}, &models.Save{}} {
			if err := tx.Where("food_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Food{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReconcileCounters recomputes every denormalized counter from the
// authoritative like, save and comment rows. It returns the number of foods
// updated.
func (r *foodRepository) ReconcileCounters(ctx context.Context) (int64, error) {
	defer observability.TrackQuery("reconcile", "foods")()

	res := r.db.WithContext(ctx).Exec(`UPDATE foods SET
		like_count = (SELECT COUNT(*) FROM likes WHERE likes.food_id = foods.id),
		saves_count = (SELECT COUNT(*) FROM saves WHERE saves.food_id = foods.id),
		comment_count = (SELECT COUNT(*) FROM comments WHERE comments.food_id = foods.id)`)
	return res.RowsAffected, res.Error
}

// incrementCounter adds one to column on the food, reporting
// gorm.ErrRecordNotFound when the food does not exist.
func incrementCounter(tx *gorm.DB, foodID uint, column string) error {
	res := tx.Model(&models.Food{}).Where("id = ?", foodID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// decrementCounter subtracts one from column, never going below zero.
func decrementCounter(tx *gorm.DB, foodID uint, column string) error {
	res := tx.Model(&models.Food{}).Where("id = ? AND "+column+" > 0", foodID).
		UpdateColumn(column, gorm.Expr(column+" - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.CounterClamps.WithLabelValues(column).Inc()
	}
	return nil
}

func readCounter(tx *gorm.DB, foodID uint, column string) (int, error) {
	var count int
	err := tx.Model(&models.Food{}).Select(column).Where("id = ?", foodID).Scan(&count).Error
	return count, err
}
