package repository

import (
	"context"
	"strings"
	"time"

	"blackdonut/internal/models"

	"gorm.io/gorm"
)

// FoodPartnerRepository defines interface for partner account and profile operations
type FoodPartnerRepository interface {
	Create(ctx context.Context, partner *models.FoodPartner) error
	GetByID(ctx context.Context, id uint) (*models.FoodPartner, error)
	GetByEmail(ctx context.Context, email string) (*models.FoodPartner, error)
	GetWithFoods(ctx context.Context, id uint) (*models.FoodPartner, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetResetToken(ctx context.Context, id uint, tokenHash *string, expires *time.Time) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type foodPartnerRepository struct {
	db *gorm.DB
}

// NewFoodPartnerRepository creates a new FoodPartnerRepository
func NewFoodPartnerRepository(db *gorm.DB) FoodPartnerRepository {
	return &foodPartnerRepository{db: db}
}

func (r *foodPartnerRepository) Create(ctx context.Context, partner *models.FoodPartner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

func (r *foodPartnerRepository) GetByID(ctx context.Context, id uint) (*models.FoodPartner, error) {
	var partner models.FoodPartner
	if err := r.db.WithContext(ctx).First(&partner, id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *foodPartnerRepository) GetByEmail(ctx context.Context, email string) (*models.FoodPartner, error) {
	var partner models.FoodPartner
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// GetWithFoods loads the partner with its foods, newest first, and fills TotalMeals.
func (r *foodPartnerRepository) GetWithFoods(ctx context.Context, id uint) (*models.FoodPartner, error) {
	var partner models.FoodPartner
	err := r.db.WithContext(ctx).
		Preload("Foods", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc")
		}).
		First(&partner, id).Error
	if err != nil {
		return nil, err
	}
	partner.TotalMeals = len(partner.Foods)
	return &partner, nil
}

func (r *foodPartnerRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateOne(r.db.WithContext(ctx).Model(&models.FoodPartner{}).Where("id = ?", id), fields)
}

func (r *foodPartnerRepository) SetResetToken(ctx context.Context, id uint, tokenHash *string, expires *time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"reset_password_token":  tokenHash,
		"reset_password_expire": expires,
	})
}

func (r *foodPartnerRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"password":              passwordHash,
		"reset_password_token":  nil,
		"reset_password_expire": nil,
	})
}
