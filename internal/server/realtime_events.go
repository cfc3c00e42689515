package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"blackdonut/internal/featureflags"
	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/notifications"
)

// publishPartnerEvent pushes an engagement event to a partner's live
// connections. Failures are logged and never fail the request.
func (s *Server) publishPartnerEvent(ctx context.Context, partnerID uint, eventType string, payload interface{}) {
	if partnerID == 0 {
		return
	}
	recipient := models.Actor{ID: partnerID, Kind: models.ActorFoodPartner}
	if s.featureFlags != nil && !s.featureFlags.Enabled(featureflags.EngagementEvents, recipient) {
		return
	}

	event := notifications.Event{Type: eventType, Payload: payload, Timestamp: time.Now().UTC()}

	if s.notifier != nil {
		if err := s.notifier.PublishPartner(ctx, partnerID, event); err != nil {
			middleware.Logger.WarnContext(ctx, "publish engagement event failed",
				slog.String("type", eventType),
				slog.Uint64("partner_id", uint64(partnerID)),
				slog.String("error", err.Error()))
		}
		return
	}

	// Single-instance mode without Redis.
	raw, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "encode engagement event failed", slog.String("error", err.Error()))
		return
	}
	s.hub.Deliver(partnerID, string(raw))
}
