package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blackdonut/internal/featureflags"
	"blackdonut/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func subscribePartner(t *testing.T, rdb *redis.Client, partnerID uint) <-chan *redis.Message {
	t.Helper()
	sub := rdb.Subscribe(context.Background(), notifications.PartnerChannel(partnerID))
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub.Channel()
}

func receiveEvent(t *testing.T, ch <-chan *redis.Message) notifications.Event {
	t.Helper()
	select {
	case msg := <-ch:
		var event notifications.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return notifications.Event{}
	}
}

func TestLikePublishesToOwner(t *testing.T) {
	rdb := newMiniRedis(t)
	env := newTestEnv(t, rdb)

	owner, ownerID := env.registerPartner(t, "owner@donut.test")
	diner := env.registerUser(t, "diner@donut.test")
	foodID := env.createFood(t, owner, "Boston Cream")
	events := subscribePartner(t, rdb, ownerID)

	resp, _ := env.callJSON(t, http.MethodPost, "/api/food/like", map[string]uint{"foodId": foodID}, diner)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	event := receiveEvent(t, events)
	assert.Equal(t, notifications.EventFoodLiked, event.Type)
	payload := event.Payload.(map[string]interface{})
	assert.EqualValues(t, foodID, payload["foodId"])
	assert.EqualValues(t, 1, payload["likeCount"])

	resp, _ = env.callJSON(t, http.MethodPost, "/api/comments",
		map[string]interface{}{"foodId": foodID, "text": fmt.Sprintf("comment on %d", foodID)}, diner)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, notifications.EventCommentCreated, receiveEvent(t, events).Type)
}

func TestPublishPartnerEvent_FlagDisabled(t *testing.T) {
	rdb := newMiniRedis(t)
	s := &Server{
		notifier:     notifications.NewNotifier(rdb),
		hub:          notifications.NewHub(),
		featureFlags: featureflags.NewManager("engagement_events=false"),
	}
	events := subscribePartner(t, rdb, 3)

	s.publishPartnerEvent(context.Background(), 3, notifications.EventFoodSaved, map[string]int{"foodId": 1})

	select {
	case msg := <-events:
		t.Fatalf("unexpected event %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishPartnerEvent_NoRedisIsLocal(t *testing.T) {
	s := &Server{
		hub:          notifications.NewHub(),
		featureFlags: featureflags.NewManager("engagement_events=true"),
	}
	assert.NotPanics(t, func() {
		s.publishPartnerEvent(context.Background(), 3, notifications.EventFoodSaved, map[string]int{"foodId": 1})
		s.publishPartnerEvent(context.Background(), 0, notifications.EventFoodSaved, nil)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("ready with redis", func(t *testing.T) {
		env := newTestEnv(t, newMiniRedis(t))

		resp, _ := env.call(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := env.call(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		checks := body["checks"].(map[string]interface{})
		assert.Equal(t, "unconfigured", checks["media"])
	})

	t.Run("not ready without redis", func(t *testing.T) {
		env := newTestEnv(t, nil)
		resp, body := env.call(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "unavailable", body["checks"].(map[string]interface{})["redis"])
	})
}
