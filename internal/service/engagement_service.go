package service

import (
	"context"

	"blackdonut/internal/cache"
	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/observability"
	"blackdonut/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Engagement actions recorded in metrics.
const (
	ActionLike = "like"
	ActionSave = "save"
)

// EngagementService toggles likes and saves and keeps their counters honest.
type EngagementService struct {
	engagementRepo repository.EngagementRepository
	foodRepo       repository.FoodRepository
}

// ToggleOutcome is the toggle result together with the food it applied to.
type ToggleOutcome struct {
	models.ToggleResult
	Food *models.Food
}

func NewEngagementService(engagementRepo repository.EngagementRepository, foodRepo repository.FoodRepository) *EngagementService {
	return &EngagementService{engagementRepo: engagementRepo, foodRepo: foodRepo}
}

func (s *EngagementService) ToggleLike(ctx context.Context, foodID uint, actor models.Actor) (*ToggleOutcome, error) {
	return s.toggle(ctx, ActionLike, foodID, actor, s.engagementRepo.ToggleLike)
}

func (s *EngagementService) ToggleSave(ctx context.Context, foodID uint, actor models.Actor) (*ToggleOutcome, error) {
	return s.toggle(ctx, ActionSave, foodID, actor, s.engagementRepo.ToggleSave)
}

func (s *EngagementService) toggle(
	ctx context.Context,
	action string,
	foodID uint,
	actor models.Actor,
	apply func(ctx context.Context, userID, foodID uint) (models.ToggleResult, error),
) (out *ToggleOutcome, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "EngagementService", "Toggle",
		attribute.String("engagement.action", action),
		attribute.Int64("food.id", int64(foodID)))
	defer func() {
		observability.RecordEngagement(action, err)
		observability.EndSpan(span, err)
	}()

	if foodID == 0 {
		return nil, models.NewValidationError("Food ID required")
	}
	if !actor.IsUser() {
		return nil, models.NewValidationError("User not authenticated")
	}

	food, err := s.foodRepo.GetByID(ctx, foodID)
	if err != nil {
		return nil, notFound(err, "Food item", foodID)
	}

	result, err := apply(ctx, actor.ID, foodID)
	if err != nil {
		return nil, notFound(err, "Food item", foodID)
	}
	// The cached partner profile embeds this food's counters.
	cache.Invalidate(ctx, cache.PartnerProfileKey(food.FoodPartnerID))
	return &ToggleOutcome{ToggleResult: result, Food: food}, nil
}

// ListSaved returns the foods actor saved, newest save first. An empty result
// is not an error.
func (s *EngagementService) ListSaved(ctx context.Context, actor models.Actor) ([]*models.Food, error) {
	if !actor.IsUser() {
		return nil, models.NewUnauthorizedError("Unauthenticated")
	}
	foods, err := s.engagementRepo.ListSavedFoods(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if foods == nil {
		foods = []*models.Food{}
	}
	return foods, nil
}

// ReconcileCounters rewrites every food's counters from the like, save and
// comment rows and returns how many foods were touched.
func (s *EngagementService) ReconcileCounters(ctx context.Context) (int64, error) {
	n, err := s.foodRepo.ReconcileCounters(ctx)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "counter reconcile failed", "error", err)
		return 0, err
	}
	middleware.Logger.InfoContext(ctx, "counters reconciled", "foods", n)
	return n, nil
}
