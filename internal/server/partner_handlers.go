package server

import (
	"blackdonut/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyPartnerProfile handles GET /api/food-partner/me
// @Summary Current partner with their foods
// @Tags food-partner
// @Produce json
// @Success 200 {object} object{message=string,foodPartner=models.FoodPartner}
// @Router /food-partner/me [get]
func (s *Server) GetMyPartnerProfile(c *fiber.Ctx) error {
	partner, err := s.partnerService.GetMe(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Profile retrieved",
		"foodPartner": partner,
	})
}

// GetPartnerProfile handles GET /api/food-partner/:id
// @Summary Public partner profile with their foods
// @Tags food-partner
// @Produce json
// @Param id path int true "Food partner ID"
// @Success 200 {object} object{message=string,foodPartner=models.FoodPartner}
// @Failure 404 {object} models.ErrorResponse
// @Router /food-partner/{id} [get]
func (s *Server) GetPartnerProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	partner, err := s.partnerService.GetProfile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Food partner retrieved successfully",
		"foodPartner": partner,
	})
}

// UpdatePartnerField builds the handler for one editable text field of the
// partner profile. bodyKey is the JSON key the new value arrives under.
func (s *Server) UpdatePartnerField(field, bodyKey, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body map[string]interface{}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
		value, _ := body[bodyKey].(string)

		partner, err := s.partnerService.UpdateField(c.UserContext(), actorFrom(c), field, value)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":     message,
			"foodPartner": partner,
		})
	}
}

// UpdateCustomersServed handles PUT /api/food-partner/customers-served
// @Summary Set the customers served counter
// @Tags food-partner
// @Accept json
// @Produce json
// @Param request body object{customersServed=int} true "Count"
// @Success 200 {object} object{message=string,foodPartner=models.FoodPartner}
// @Router /food-partner/customers-served [put]
func (s *Server) UpdateCustomersServed(c *fiber.Ctx) error {
	var body struct {
		CustomersServed *int `json:"customersServed"`
	}
	if err := c.BodyParser(&body); err != nil || body.CustomersServed == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("customersServed must be a non-negative number"))
	}

	partner, err := s.partnerService.UpdateCustomersServed(c.UserContext(), actorFrom(c), *body.CustomersServed)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Customer served count updated successfully",
		"foodPartner": partner,
	})
}

// UpdateProfilePicture handles PUT /api/food-partner/profile-picture (multipart: profileImage)
// @Summary Replace the partner profile picture
// @Tags food-partner
// @Accept mpfd
// @Produce json
// @Param profileImage formData file true "Image"
// @Success 200 {object} object{message=string,foodPartner=models.FoodPartner}
// @Failure 503 {object} models.ErrorResponse
// @Router /food-partner/profile-picture [put]
func (s *Server) UpdateProfilePicture(c *fiber.Ctx) error {
	fh, file, ok := openUpload(c, "profileImage")
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Profile image is required"))
	}
	defer func() { _ = file.Close() }()

	partner, err := s.partnerService.UpdateProfilePicture(c.UserContext(), actorFrom(c), fh.Filename, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Profile picture updated successfully",
		"foodPartner": partner,
	})
}
