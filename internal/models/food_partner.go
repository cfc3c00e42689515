package models

import "time"

// FoodPartner is a restaurant account that publishes food and moderates the
// comments on it.
type FoodPartner struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Name                 string     `gorm:"not null" json:"name"`
	ContactName          string     `gorm:"not null" json:"contactName"`
	Phone                string     `gorm:"not null" json:"phone"`
	Address              string     `gorm:"not null" json:"address"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	Password             string     `gorm:"not null" json:"-"`
	ProfileImage         string     `json:"profileImage"`
	ProfileImagePublicID string     `json:"-"`
	CustomersServed      int        `gorm:"not null;default:0" json:"customersServed"`
	ResetPasswordToken   *string    `gorm:"index" json:"-"`
	ResetPasswordExpire  *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`

	// TotalMeals is computed from the partner's foods and never persisted.
	TotalMeals int    `gorm:"-" json:"totalMeals"`
	Foods      []Food `gorm:"foreignKey:FoodPartnerID" json:"foods,omitempty"`
}
