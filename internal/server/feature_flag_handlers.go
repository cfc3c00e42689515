package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/feature-flags. Percentage rollouts are
// evaluated for the signed-in actor when there is one.
// @Summary Feature flags for the caller
// @Tags system
// @Produce json
// @Success 200 {object} object{flags=map[string]bool}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	actor, _ := s.optionalActor(c)
	return c.JSON(fiber.Map{"flags": s.featureFlags.Snapshot(actor)})
}
