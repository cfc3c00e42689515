package server

import (
	"errors"
	"log/slog"

	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EngagementWebSocket streams engagement events on the partner's foods.
// PartnerRequired runs before the upgrade, so the session cookie authenticates it.
func (s *Server) EngagementWebSocket() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		actor, _ := conn.Locals(middleware.LocalsActor).(models.Actor)

		client, err := s.hub.Register(actor.ID, conn)
		if err != nil {
			code := websocket.CloseInternalServerErr
			if errors.Is(err, notifications.ErrPartnerConnLimit) || errors.Is(err, notifications.ErrServerConnLimit) {
				code = websocket.CloseTryAgainLater
			}
			middleware.Logger.Warn("engagement websocket rejected",
				slog.Uint64("partner_id", uint64(actor.ID)),
				slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, err.Error()))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}
