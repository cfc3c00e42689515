package server

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"blackdonut/internal/middleware"
	"blackdonut/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) so Fiber's
// ErrorHandler does not overwrite the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam turns "foodId" into "food ID" and "id" into "ID".
func humanizeParam(param string) string {
	prefix, ok := strings.CutSuffix(param, "Id")
	if !ok || prefix == "" {
		return "ID"
	}
	return strings.ToLower(prefix) + " ID"
}

// respondError writes err with the status its code maps to. Server errors are
// logged since the response hides their cause.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusForError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// actorFrom returns the authenticated actor set by UserRequired or PartnerRequired.
func actorFrom(c *fiber.Ctx) models.Actor {
	actor, _ := c.Locals(middleware.LocalsActor).(models.Actor)
	return actor
}

func badBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
}

func joinOrigins(origins []string) string {
	return strings.Join(origins, ",")
}

// openUpload opens a required multipart file field.
func openUpload(c *fiber.Ctx, field string) (*multipart.FileHeader, io.ReadCloser, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, false
	}
	file, err := fh.Open()
	if err != nil {
		return nil, nil, false
	}
	return fh, file, true
}
