package server

import (
	"blackdonut/internal/models"
	"blackdonut/internal/service"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RegisterUser handles POST /api/auth/user/register
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterUserInput true "Registration"
// @Success 201 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/user/register [post]
func (s *Server) RegisterUser(c *fiber.Ctx) error {
	var req service.RegisterUserInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := s.authService.RegisterUser(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.startSession(c, models.Actor{ID: user.ID, Kind: models.ActorUser}); err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginUser handles POST /api/auth/user/login
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/user/login [post]
func (s *Server) LoginUser(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := s.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.startSession(c, models.Actor{ID: user.ID, Kind: models.ActorUser}); err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message": "User logged in successfully",
		"user":    user,
	})
}

// LogoutUser handles GET /api/auth/user/logout
func (s *Server) LogoutUser(c *fiber.Ctx) error {
	s.endSession(c, models.ActorUser)
	return c.JSON(fiber.Map{"message": "User logged out successfully"})
}

// RegisterFoodPartner handles POST /api/auth/food-partner/register. It accepts
// JSON, or multipart form data with an optional profileImage file.
// @Summary Register a food partner
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} object{message=string,foodPartner=models.FoodPartner}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/food-partner/register [post]
func (s *Server) RegisterFoodPartner(c *fiber.Ctx) error {
	var req service.RegisterPartnerInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if fh, err := c.FormFile("profileImage"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return badBody(c)
		}
		defer func() { _ = file.Close() }()
		req.ImageName, req.Image = fh.Filename, file
	}

	partner, err := s.authService.RegisterPartner(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.startSession(c, models.Actor{ID: partner.ID, Kind: models.ActorFoodPartner}); err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Food partner registered successfully",
		"foodPartner": partner,
	})
}

// LoginFoodPartner handles POST /api/auth/food-partner/login
// @Summary Food partner login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{message=string,foodPartner=models.FoodPartner}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/food-partner/login [post]
func (s *Server) LoginFoodPartner(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	partner, err := s.authService.LoginPartner(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.startSession(c, models.Actor{ID: partner.ID, Kind: models.ActorFoodPartner}); err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message":     "Food partner logged in successfully",
		"foodPartner": partner,
	})
}

// LogoutFoodPartner handles GET /api/auth/food-partner/logout
func (s *Server) LogoutFoodPartner(c *fiber.Ctx) error {
	s.endSession(c, models.ActorFoodPartner)
	return c.JSON(fiber.Map{"message": "Food partner logged out successfully"})
}

// ForgotPassword handles POST /api/auth/{user|food-partner}/forgot-password.
// The answer is the same whether or not the email is registered.
func (s *Server) ForgotPassword(kind models.ActorKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}

		if err := s.authService.ForgotPassword(c.UserContext(), kind, req.Email); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "If that email is registered, a password reset link has been sent",
		})
	}
}

// ResetPassword handles POST /api/auth/{user|food-partner}/reset-password.
func (s *Server) ResetPassword(kind models.ActorKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			ID       uint   `json:"id"`
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}

		if err := s.authService.ResetPassword(c.UserContext(), kind, req.ID, req.Token, req.Password); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Password reset successfully"})
	}
}
