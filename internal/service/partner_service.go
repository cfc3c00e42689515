package service

import (
	"context"
	"io"
	"strings"

	"blackdonut/internal/cache"
	"blackdonut/internal/media"
	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/repository"

	"github.com/google/uuid"
)

// Profile fields a partner may edit one at a time.
const (
	FieldName        = "name"
	FieldAddress     = "address"
	FieldContactName = "contact_name"
	FieldPhone       = "phone"
)

var profileFieldMessages = map[string]string{
	FieldName:        "Valid name is required",
	FieldAddress:     "Valid address is required",
	FieldContactName: "Valid contact name is required",
	FieldPhone:       "Valid phone number is required",
}

type PartnerService struct {
	partnerRepo repository.FoodPartnerRepository
	store       media.Store
}

func NewPartnerService(partnerRepo repository.FoodPartnerRepository, store media.Store) *PartnerService {
	if store == nil {
		store = media.Disabled{}
	}
	return &PartnerService{partnerRepo: partnerRepo, store: store}
}

// GetMe returns the partner's own profile with their foods.
func (s *PartnerService) GetMe(ctx context.Context, actor models.Actor) (*models.FoodPartner, error) {
	if !actor.IsFoodPartner() {
		return nil, models.NewUnauthorizedError("Unauthenticated")
	}
	partner, err := s.partnerRepo.GetWithFoods(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "Food partner", actor.ID)
	}
	return partner, nil
}

// GetProfile returns a partner's public profile with foods, served from the
// cache when possible.
func (s *PartnerService) GetProfile(ctx context.Context, partnerID uint) (*models.FoodPartner, error) {
	var partner models.FoodPartner
	err := cache.Aside(ctx, cache.PartnerProfileKey(partnerID), &partner, cache.PartnerProfileTTL, func() error {
		p, err := s.partnerRepo.GetWithFoods(ctx, partnerID)
		if err != nil {
			return err
		}
		partner = *p
		return nil
	})
	if err != nil {
		return nil, notFound(err, "Food partner", partnerID)
	}
	return &partner, nil
}

// UpdateField sets one of the free-text profile fields.
func (s *PartnerService) UpdateField(ctx context.Context, actor models.Actor, field, value string) (*models.FoodPartner, error) {
	msg, ok := profileFieldMessages[field]
	if !ok {
		return nil, models.NewValidationError("Unknown profile field")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, models.NewValidationError(msg)
	}
	return s.apply(ctx, actor, map[string]interface{}{field: value})
}

func (s *PartnerService) UpdateCustomersServed(ctx context.Context, actor models.Actor, served int) (*models.FoodPartner, error) {
	if served < 0 {
		return nil, models.NewValidationError("customersServed must be a non-negative number")
	}
	return s.apply(ctx, actor, map[string]interface{}{"customers_served": served})
}

// UpdateProfilePicture uploads a new image and removes the previous one.
func (s *PartnerService) UpdateProfilePicture(ctx context.Context, actor models.Actor, filename string, r io.Reader) (*models.FoodPartner, error) {
	if !actor.IsFoodPartner() {
		return nil, models.NewUnauthorizedError("Unauthenticated")
	}
	if r == nil {
		return nil, models.NewValidationError("No image file uploaded")
	}
	if !media.Allowed(media.KindImage, filename) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	current, err := s.partnerRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "Food partner", actor.ID)
	}

	asset, err := s.store.Upload(ctx, media.KindImage, uuid.NewString(), r)
	if err != nil {
		return nil, uploadError("profile image", err)
	}

	updated, err := s.apply(ctx, actor, map[string]interface{}{
		"profile_image":           asset.URL,
		"profile_image_public_id": asset.PublicID,
	})
	if err != nil {
		_ = s.store.Delete(ctx, media.KindImage, asset.PublicID)
		return nil, err
	}

	if current.ProfileImagePublicID != "" {
		if err := s.store.Delete(ctx, media.KindImage, current.ProfileImagePublicID); err != nil {
			middleware.Logger.WarnContext(ctx, "old profile image delete failed", "error", err)
		}
	}
	return updated, nil
}

func (s *PartnerService) apply(ctx context.Context, actor models.Actor, fields map[string]interface{}) (*models.FoodPartner, error) {
	if !actor.IsFoodPartner() {
		return nil, models.NewUnauthorizedError("Unauthenticated")
	}
	if err := s.partnerRepo.UpdateFields(ctx, actor.ID, fields); err != nil {
		return nil, notFound(err, "Food partner", actor.ID)
	}
	cache.Invalidate(ctx, cache.PartnerProfileKey(actor.ID))

	partner, err := s.partnerRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "Food partner", actor.ID)
	}
	return partner, nil
}
