// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a consumer account that browses, likes, saves and comments on food.
type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	FullName            string     `gorm:"not null" json:"fullName"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	ResetPasswordToken  *string    `gorm:"index" json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}
