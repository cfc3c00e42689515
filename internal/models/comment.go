package models

import "time"

// MaxCommentLength bounds comment and reply text.
const MaxCommentLength = 500

// AuthorSummary is the public identity shown next to a comment or reply.
// It is loaded alongside comments and never persisted.
type AuthorSummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// CommentReply is the single partner reply attached to a comment.
type CommentReply struct {
	Text      string         `json:"text"`
	AuthorID  uint           `json:"authorId"`
	Author    *AuthorSummary `json:"author,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Comment is a comment on a food. Authors are either users or partners, so the
// author is identified by AuthorID together with AuthorType.
type Comment struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Text             string        `gorm:"type:text;not null" json:"text"`
	FoodID           uint          `gorm:"not null;index:idx_comments_food_order,priority:1" json:"food"`
	AuthorID         uint          `gorm:"not null;index" json:"author"`
	AuthorType       ActorKind     `gorm:"type:varchar(16);not null" json:"authorType"`
	IsPartnerComment bool          `gorm:"not null;default:false" json:"isPartnerComment"`
	IsPinned         bool          `gorm:"not null;default:false;index:idx_comments_food_order,priority:2" json:"isPinned"`
	Reply            *CommentReply `gorm:"type:text;serializer:json" json:"reply,omitempty"`
	CreatedAt        time.Time     `gorm:"index:idx_comments_food_order,priority:3" json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`

	// User is the author's summary, whichever kind of account wrote it.
	User *AuthorSummary `gorm:"-" json:"user,omitempty"`
}

// AuthoredBy reports whether actor wrote the comment.
func (c *Comment) AuthoredBy(actor Actor) bool {
	return c.AuthorID == actor.ID && c.AuthorType == actor.Kind
}
