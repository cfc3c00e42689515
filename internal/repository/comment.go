package repository

import (
	"context"
	"time"

	"blackdonut/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations. Create and
// Delete keep foods.comment_count in step inside the same transaction.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByFood(ctx context.Context, foodID uint) ([]*models.Comment, error)
	CountByFood(ctx context.Context, foodID uint) (int64, error)
	TogglePinned(ctx context.Context, id uint) (*models.Comment, error)
	SetReply(ctx context.Context, comment *models.Comment, reply *models.CommentReply) error
	Delete(ctx context.Context, comment *models.Comment) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := incrementCounter(tx, comment.FoodID, commentCountColumn); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return err
	}
	return attachAuthors(r.db.WithContext(ctx), comment)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	db := r.db.WithContext(ctx)
	if err := db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	if err := attachAuthors(db, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByFood returns pinned comments first, newest first within each group.
func (r *commentRepository) ListByFood(ctx context.Context, foodID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	db := r.db.WithContext(ctx)
	err := db.
		Where("food_id = ?", foodID).
		Order("is_pinned desc").
		Order("created_at desc").
		Order("id desc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	if err := attachAuthors(db, comments...); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) CountByFood(ctx context.Context, foodID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("food_id = ?", foodID).Count(&count).Error
	return count, err
}

// TogglePinned flips is_pinned in a single statement and returns the updated row.
func (r *commentRepository) TogglePinned(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).Where("id = ?", id).
			UpdateColumns(map[string]interface{}{
				"is_pinned":  gorm.Expr("NOT is_pinned"),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&comment, id).Error
	})
	if err != nil {
		return nil, err
	}
	if err := attachAuthors(r.db.WithContext(ctx), &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// SetReply replaces the comment's reply.
func (r *commentRepository) SetReply(ctx context.Context, comment *models.Comment, reply *models.CommentReply) error {
	stored := *reply
	stored.Author = nil
	now := time.Now()
	db := r.db.WithContext(ctx)
	res := db.Model(comment).Select("reply", "updated_at").
		Updates(&models.Comment{Reply: &stored, UpdatedAt: now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	comment.Reply = reply
	comment.UpdatedAt = now
	return attachAuthors(db, comment)
}

// Delete removes the comment and decrements its food's counter, clamped at zero.
func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, comment.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return decrementCounter(tx, comment.FoodID, commentCountColumn)
	})
}

// attachAuthors fills the author summaries of comments and their replies with
// one query per account table. Authors that no longer exist are left nil.
func attachAuthors(db *gorm.DB, comments ...*models.Comment) error {
	var userIDs, partnerIDs []uint
	for _, c := range comments {
		switch c.AuthorType {
		case models.ActorUser:
			userIDs = append(userIDs, c.AuthorID)
		case models.ActorFoodPartner:
			partnerIDs = append(partnerIDs, c.AuthorID)
		}
		if c.Reply != nil {
			partnerIDs = append(partnerIDs, c.Reply.AuthorID)
		}
	}

	users := make(map[uint]*models.AuthorSummary)
	if len(userIDs) > 0 {
		var rows []models.User
		if err := db.Select("id", "full_name").Where("id IN ?", userIDs).Find(&rows).Error; err != nil {
			return err
		}
		for _, u := range rows {
			users[u.ID] = &models.AuthorSummary{ID: u.ID, Name: u.FullName}
		}
	}

	partners := make(map[uint]*models.AuthorSummary)
	if len(partnerIDs) > 0 {
		var rows []models.FoodPartner
		if err := db.Select("id", "name", "profile_image").Where("id IN ?", partnerIDs).Find(&rows).Error; err != nil {
			return err
		}
		for _, p := range rows {
			partners[p.ID] = &models.AuthorSummary{ID: p.ID, Name: p.Name, ProfileImage: p.ProfileImage}
		}
	}

	for _, c := range comments {
		if c.AuthorType == models.ActorFoodPartner {
			c.User = partners[c.AuthorID]
		} else {
			c.User = users[c.AuthorID]
		}
		if c.Reply != nil {
			c.Reply.Author = partners[c.Reply.AuthorID]
		}
	}
	return nil
}
