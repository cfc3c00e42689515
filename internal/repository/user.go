// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"
	"time"

	"blackdonut/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines interface for user account operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, id uint, tokenHash *string, expires *time.Time) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetResetToken stores (or with nil arguments clears) the hashed reset token.
func (r *userRepository) SetResetToken(ctx context.Context, id uint, tokenHash *string, expires *time.Time) error {
	return updateOne(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id), map[string]interface{}{
		"reset_password_token":  tokenHash,
		"reset_password_expire": expires,
	})
}

// UpdatePassword stores a new password hash and clears any reset token.
func (r *userRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return updateOne(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id), map[string]interface{}{
		"password":              passwordHash,
		"reset_password_token":  nil,
		"reset_password_expire": nil,
	})
}

// updateOne applies values and reports gorm.ErrRecordNotFound when no row matched.
func updateOne(q *gorm.DB, values map[string]interface{}) error {
	res := q.Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
