// Package notifications delivers engagement events to food partners in real time.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"blackdonut/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const partnerChannelPrefix = "engagement:partner:"

// Event types published to partners.
const (
	EventFoodLiked      = "food_liked"
	EventFoodSaved      = "food_saved"
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

// Event is the envelope written to partner channels and WebSocket clients.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// PartnerChannel returns the Redis channel for a partner's engagement events.
func PartnerChannel(partnerID uint) string {
	return fmt.Sprintf("%s%d", partnerChannelPrefix, partnerID)
}

// parsePartnerChannel extracts the partner id from a channel name.
func parsePartnerChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, partnerChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishPartner sends an event to a partner's channel. A nil client is a no-op.
func (n *Notifier) PublishPartner(ctx context.Context, partnerID uint, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, PartnerChannel(partnerID), payload).Err()
}

// StartPartnerSubscriber subscribes to every partner channel and calls
// onMessage for each message until ctx is cancelled.
func (n *Notifier) StartPartnerSubscriber(ctx context.Context, onMessage func(partnerID uint, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, partnerChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe partner channels: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				partnerID, valid := parsePartnerChannel(msg.Channel)
				if !valid {
					middleware.Logger.Warn("invalid partner channel", slog.String("channel", msg.Channel))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in partner subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(partnerID, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
