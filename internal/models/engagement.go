package models

import "time"

// Like is a user's like on a food. One row per (user, food).
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_food" json:"user"`
	FoodID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_food;index" json:"food"`
	CreatedAt time.Time `json:"createdAt"`
}

// Save is a user's bookmark of a food. One row per (user, food).
type Save struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saves_user_food" json:"user"`
	FoodID    uint      `gorm:"not null;uniqueIndex:idx_saves_user_food;index" json:"food"`
	Food      *Food     `gorm:"foreignKey:FoodID" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToggleResult is the state after a like or save toggle.
type ToggleResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}
