package server

import (
	"blackdonut/internal/models"
	"blackdonut/internal/notifications"
	"blackdonut/internal/service"

	"github.com/gofiber/fiber/v2"
)

type foodRefRequest struct {
	FoodID uint `json:"foodId"`
}

// CreateFood handles POST /api/food (multipart: video, name, description)
// @Summary Publish a food video
// @Tags food
// @Accept mpfd
// @Produce json
// @Param video formData file true "Video"
// @Param name formData string true "Name"
// @Param description formData string false "Description"
// @Success 201 {object} object{message=string,food=models.Food}
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /food [post]
func (s *Server) CreateFood(c *fiber.Ctx) error {
	fh, file, ok := openUpload(c, "video")
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	defer func() { _ = file.Close() }()

	food, err := s.foodService.CreateFood(c.UserContext(), service.CreateFoodInput{
		Actor:       actorFrom(c),
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		VideoName:   fh.Filename,
		Video:       file,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Food created successfully",
		"food":    food,
	})
}

// ListFoods handles GET /api/food?limit=&offset=
// @Summary Food feed, newest first
// @Tags food
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} object{message=string,foods=[]models.Food}
// @Router /food [get]
func (s *Server) ListFoods(c *fiber.Ctx) error {
	foods, err := s.foodService.ListFoods(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Food items fetched successfully",
		"foods":   foods,
	})
}

// ToggleLike handles POST /api/food/like
// @Summary Like or unlike a food
// @Tags engagement
// @Accept json
// @Produce json
// @Param request body object{foodId=int} true "Food"
// @Success 200 {object} object{message=string,like=models.ToggleResult}
// @Router /food/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	var req foodRefRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	out, err := s.engagementService.ToggleLike(c.UserContext(), req.FoodID, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	if out.Active {
		s.publishPartnerEvent(c.UserContext(), out.Food.FoodPartnerID, notifications.EventFoodLiked, fiber.Map{
			"foodId":    out.Food.ID,
			"likeCount": out.Count,
		})
	}

	message := "Food unliked successfully"
	if out.Active {
		message = "Food liked successfully"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"like":    out.ToggleResult,
	})
}

// ToggleSave handles POST /api/food/save
// @Summary Save or unsave a food
// @Tags engagement
// @Accept json
// @Produce json
// @Param request body object{foodId=int} true "Food"
// @Success 200 {object} object{message=string,save=models.ToggleResult}
// @Router /food/save [post]
func (s *Server) ToggleSave(c *fiber.Ctx) error {
	var req foodRefRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	out, err := s.engagementService.ToggleSave(c.UserContext(), req.FoodID, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	if out.Active {
		s.publishPartnerEvent(c.UserContext(), out.Food.FoodPartnerID, notifications.EventFoodSaved, fiber.Map{
			"foodId":     out.Food.ID,
			"savesCount": out.Count,
		})
	}

	message := "Food unsaved successfully"
	if out.Active {
		message = "Food saved successfully"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"save":    out.ToggleResult,
	})
}

// ListSavedFoods handles GET /api/food/save
// @Summary Foods saved by the current user
// @Tags engagement
// @Produce json
// @Success 200 {object} object{message=string,foods=[]models.Food}
// @Router /food/save [get]
func (s *Server) ListSavedFoods(c *fiber.Ctx) error {
	foods, err := s.engagementService.ListSaved(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Saved foods retrieved successfully",
		"foods":   foods,
	})
}

// RenameFood handles PUT /api/food/:id/name
// @Summary Rename an owned food
// @Tags food
// @Accept json
// @Produce json
// @Param id path int true "Food ID"
// @Param request body object{name=string} true "Name"
// @Success 200 {object} object{message=string,food=models.Food}
// @Router /food/{id}/name [put]
func (s *Server) RenameFood(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	food, err := s.foodService.RenameFood(c.UserContext(), id, actorFrom(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Food name updated successfully",
		"food":    food,
	})
}

// DescribeFood handles PUT /api/food/:id/description
// @Summary Update an owned food's description
// @Tags food
// @Accept json
// @Produce json
// @Param id path int true "Food ID"
// @Param request body object{description=string} true "Description"
// @Success 200 {object} object{message=string,food=models.Food}
// @Router /food/{id}/description [put]
func (s *Server) DescribeFood(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	food, err := s.foodService.DescribeFood(c.UserContext(), id, actorFrom(c), req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Food description updated successfully",
		"food":    food,
	})
}

// DeleteFood handles DELETE /api/food/:id
// @Summary Delete an owned food
// @Tags food
// @Param id path int true "Food ID"
// @Success 200 {object} object{message=string}
// @Router /food/{id} [delete]
func (s *Server) DeleteFood(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.foodService.DeleteFood(c.UserContext(), id, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Food deleted successfully"})
}
