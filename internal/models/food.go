package models

import "time"

// Food is a published food video. LikeCount, SavesCount and CommentCount are
// denormalized counters kept in step with the like, save and comment rows.
type Food struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"not null" json:"name"`
	Description   string       `gorm:"type:text" json:"description"`
	Video         string       `gorm:"not null" json:"video"`
	VideoPublicID string       `json:"-"`
	FoodPartnerID uint         `gorm:"not null;index" json:"foodPartner"`
	FoodPartner   *FoodPartner `gorm:"foreignKey:FoodPartnerID" json:"partner,omitempty"`
	LikeCount     int          `gorm:"not null;default:0" json:"likeCount"`
	SavesCount    int          `gorm:"not null;default:0" json:"savesCount"`
	CommentCount  int          `gorm:"not null;default:0" json:"commentCount"`
	CreatedAt     time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// EngagementStats is the per-food aggregate shown to the owning partner.
type EngagementStats struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Saves    int `json:"saves"`
}
