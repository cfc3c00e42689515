package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"blackdonut/internal/cache"
	"blackdonut/internal/models"
	"blackdonut/internal/observability"
	"blackdonut/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// CommentService implements self-service comments and the owning partner's
// moderation of them.
type CommentService struct {
	commentRepo repository.CommentRepository
	foodRepo    repository.FoodRepository
	now         func() time.Time
}

type AddCommentInput struct {
	Actor  models.Actor
	FoodID uint
	Text   string
}

func NewCommentService(commentRepo repository.CommentRepository, foodRepo repository.FoodRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		foodRepo:    foodRepo,
		now:         time.Now,
	}
}

func (s *CommentService) getFood(ctx context.Context, foodID uint) (*models.Food, error) {
	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		return nil, notFound(err, "Food item", foodID)
	}
	return food, nil
}

// moderated loads a comment and its food and checks that actor owns the food.
func (s *CommentService) moderated(ctx context.Context, commentID uint, actor models.Actor) (*models.Comment, *models.Food, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, nil, notFound(err, "Comment", commentID)
	}
	food, err := s.getFood(ctx, comment.FoodID)
	if err != nil {
		return nil, nil, err
	}
	if !models.IsOwner(actor, food) {
		return nil, nil, models.NewForbiddenError(forbiddenNotOwner)
	}
	return comment, food, nil
}

// forgetProfile drops the cached profile of the partner owning foodID, which
// embeds the food's comment count.
func (s *CommentService) forgetProfile(ctx context.Context, foodID uint) {
	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		return
	}
	cache.Invalidate(ctx, cache.PartnerProfileKey(food.FoodPartnerID))
}

func cleanText(text, field string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError(field + " text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return "", models.NewValidationError(field + " too long (max 500 characters)")
	}
	return text, nil
}

// GetEngagementStats returns like, comment and save totals for a food owned
// by actor. Comments are counted live; likes and saves come from the counters.
func (s *CommentService) GetEngagementStats(ctx context.Context, foodID uint, actor models.Actor) (stats *models.EngagementStats, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "GetEngagementStats",
		attribute.Int64("food.id", int64(foodID)))
	defer func() { observability.EndSpan(span, err) }()

	food, err := s.getFood(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if !models.IsOwner(actor, food) {
		return nil, models.NewForbiddenError(forbiddenNotOwner)
	}

	comments, err := s.commentRepo.CountByFood(ctx, foodID)
	if err != nil {
		return nil, err
	}

	return &models.EngagementStats{
		Likes:    food.LikeCount,
		Comments: int(comments),
		Saves:    food.SavesCount,
	}, nil
}

// TogglePin flips the pinned flag. There is no limit on pinned comments.
func (s *CommentService) TogglePin(ctx context.Context, commentID uint, actor models.Actor) (*models.Comment, error) {
	if _, _, err := s.moderated(ctx, commentID, actor); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.TogglePinned(ctx, commentID)
	if err != nil {
		return nil, notFound(err, "Comment", commentID)
	}
	return comment, nil
}

// Reply sets the partner reply, replacing any earlier one.
func (s *CommentService) Reply(ctx context.Context, commentID uint, actor models.Actor, text string) (*models.Comment, error) {
	text, err := cleanText(text, "Reply")
	if err != nil {
		return nil, err
	}

	comment, _, err := s.moderated(ctx, commentID, actor)
	if err != nil {
		return nil, err
	}

	reply := &models.CommentReply{
		Text:      text,
		AuthorID:  actor.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.commentRepo.SetReply(ctx, comment, reply); err != nil {
		return nil, notFound(err, "Comment", commentID)
	}
	return comment, nil
}

// DeleteAsOwner removes any comment on a food the actor owns.
func (s *CommentService) DeleteAsOwner(ctx context.Context, commentID uint, actor models.Actor) (*models.Comment, error) {
	comment, food, err := s.moderated(ctx, commentID, actor)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Delete(ctx, comment); err != nil {
		return nil, notFound(err, "Comment", commentID)
	}
	cache.Invalidate(ctx, cache.PartnerProfileKey(food.FoodPartnerID))
	return comment, nil
}

// AddPartnerComment posts a comment as a partner. Partners may comment on any
// food, not only their own.
func (s *CommentService) AddPartnerComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if !in.Actor.IsFoodPartner() {
		return nil, models.NewUnauthorizedError("Unauthenticated")
	}
	return s.create(ctx, in, true)
}

// AddComment posts a comment as a user.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if !in.Actor.IsUser() {
		return nil, models.NewUnauthorizedError("Unauthenticated")
	}
	return s.create(ctx, in, false)
}

func (s *CommentService) create(ctx context.Context, in AddCommentInput, byPartner bool) (comment *models.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "AddComment",
		attribute.Int64("food.id", int64(in.FoodID)),
		attribute.Bool("comment.partner", byPartner))
	defer func() { observability.EndSpan(span, err) }()

	text, err := cleanText(in.Text, "Comment")
	if err != nil {
		return nil, err
	}
	if in.FoodID == 0 {
		return nil, models.NewValidationError("Food ID is required")
	}

	comment = &models.Comment{
		Text:             text,
		FoodID:           in.FoodID,
		AuthorID:         in.Actor.ID,
		AuthorType:       in.Actor.Kind,
		IsPartnerComment: byPartner,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, notFound(err, "Food item", in.FoodID)
	}
	s.forgetProfile(ctx, in.FoodID)
	return comment, nil
}

// DeleteOwnComment removes a comment written by actor.
func (s *CommentService) DeleteOwnComment(ctx context.Context, commentID uint, actor models.Actor) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, notFound(err, "Comment", commentID)
	}
	if !comment.AuthoredBy(actor) {
		return nil, models.NewForbiddenError("Can only delete your own comments")
	}
	if err := s.commentRepo.Delete(ctx, comment); err != nil {
		return nil, notFound(err, "Comment", commentID)
	}
	s.forgetProfile(ctx, comment.FoodID)
	return comment, nil
}

// ListComments returns a food's comments, pinned first and newest first. An
// unknown food simply has no comments.
func (s *CommentService) ListComments(ctx context.Context, foodID uint) ([]*models.Comment, error) {
	comments, err := s.commentRepo.ListByFood(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}
