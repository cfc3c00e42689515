package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"blackdonut/internal/cache"
	"blackdonut/internal/media"
	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// FoodService manages the food videos partners publish.
type FoodService struct {
	foodRepo repository.FoodRepository
	store    media.Store
}

type CreateFoodInput struct {
	Actor       models.Actor
	Name        string
	Description string
	VideoName   string
	Video       io.Reader
}

func NewFoodService(foodRepo repository.FoodRepository, store media.Store) *FoodService {
	if store == nil {
		store = media.Disabled{}
	}
	return &FoodService{foodRepo: foodRepo, store: store}
}

// uploadError maps a media failure to a 503.
func uploadError(what string, err error) error {
	if errors.Is(err, media.ErrNotConfigured) {
		return models.NewUnavailableError("Upload service misconfigured", err)
	}
	return models.NewUnavailableError("Error uploading "+what, err)
}

// CreateFood uploads the video under a fresh uuid public id and stores the food.
func (s *FoodService) CreateFood(ctx context.Context, in CreateFoodInput) (*models.Food, error) {
	if !in.Actor.IsFoodPartner() {
		return nil, models.NewUnauthorizedError("Unauthenticated")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Food name is required")
	}
	if in.Video == nil {
		return nil, models.NewValidationError("No file uploaded")
	}
	if !media.Allowed(media.KindVideo, in.VideoName) {
		return nil, models.NewValidationError("Unsupported video format")
	}

	asset, err := s.store.Upload(ctx, media.KindVideo, uuid.NewString(), in.Video)
	if err != nil {
		return nil, uploadError("video", err)
	}

	food := &models.Food{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Video:         asset.URL,
		VideoPublicID: asset.PublicID,
		FoodPartnerID: in.Actor.ID,
	}
	if err := s.foodRepo.Create(ctx, food); err != nil {
		s.discard(ctx, media.KindVideo, asset.PublicID)
		return nil, err
	}

	cache.Invalidate(ctx, cache.PartnerProfileKey(in.Actor.ID))
	return food, nil
}

// ListFoods returns the feed, newest first.
func (s *FoodService) ListFoods(ctx context.Context, limit, offset int) ([]*models.Food, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	foods, err := s.foodRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if foods == nil {
		foods = []*models.Food{}
	}
	return foods, nil
}

func (s *FoodService) owned(ctx context.Context, foodID uint, actor models.Actor) (*models.Food, error) {
	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		return nil, notFound(err, "Food item", foodID)
	}
	if !models.IsOwner(actor, food) {
		return nil, models.NewForbiddenError(forbiddenNotOwner)
	}
	return food, nil
}

func (s *FoodService) update(ctx context.Context, foodID uint, actor models.Actor, fields map[string]interface{}) (*models.Food, error) {
	if _, err := s.owned(ctx, foodID, actor); err != nil {
		return nil, err
	}
	if err := s.foodRepo.UpdateFields(ctx, foodID, fields); err != nil {
		return nil, notFound(err, "Food item", foodID)
	}
	cache.Invalidate(ctx, cache.PartnerProfileKey(actor.ID))

	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		return nil, notFound(err, "Food item", foodID)
	}
	return food, nil
}

func (s *FoodService) RenameFood(ctx context.Context, foodID uint, actor models.Actor, name string) (*models.Food, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Food name is required")
	}
	return s.update(ctx, foodID, actor, map[string]interface{}{"name": name})
}

// DescribeFood replaces the description. An empty description clears it.
func (s *FoodService) DescribeFood(ctx context.Context, foodID uint, actor models.Actor, description string) (*models.Food, error) {
	return s.update(ctx, foodID, actor, map[string]interface{}{"description": strings.TrimSpace(description)})
}

// DeleteFood removes the food with its comments, likes and saves, then drops
// the video from the media host. A media failure does not fail the delete.
func (s *FoodService) DeleteFood(ctx context.Context, foodID uint, actor models.Actor) (*models.Food, error) {
	food, err := s.owned(ctx, foodID, actor)
	if err != nil {
		return nil, err
	}
	if err := s.foodRepo.Delete(ctx, foodID); err != nil {
		return nil, notFound(err, "Food item", foodID)
	}

	s.discard(ctx, media.KindVideo, food.VideoPublicID)
	cache.Invalidate(ctx, cache.PartnerProfileKey(actor.ID))
	return food, nil
}

func (s *FoodService) discard(ctx context.Context, kind media.Kind, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.store.Delete(ctx, kind, publicID); err != nil {
		middleware.Logger.WarnContext(ctx, "media delete failed",
			slog.String("public_id", publicID),
			slog.String("error", err.Error()))
	}
}
