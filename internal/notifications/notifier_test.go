package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishPartner(context.Background(), 1, Event{Type: EventFoodLiked}))
	assert.NoError(t, n.StartPartnerSubscriber(context.Background(), func(uint, string) {}))
}

func TestPartnerChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "engagement:partner:12", PartnerChannel(12))

	id, ok := parsePartnerChannel("engagement:partner:12")
	assert.True(t, ok)
	assert.EqualValues(t, 12, id)

	for _, bad := range []string{"engagement:partner:", "engagement:partner:abc", "other:12", "engagement:partner:0"} {
		_, ok := parsePartnerChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_PublishReachesHub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	client, err := hub.Register(7, nil)
	require.NoError(t, err)
	other, err := hub.Register(8, nil)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishPartner(context.Background(), 7, Event{
		Type:    EventCommentCreated,
		Payload: map[string]interface{}{"foodId": 3},
	}))

	var got []byte
	require.Eventually(t, func() bool {
		select {
		case got = <-client.Send:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var event Event
	require.NoError(t, json.Unmarshal(got, &event))
	assert.Equal(t, EventCommentCreated, event.Type)
	assert.False(t, event.Timestamp.IsZero())
	assert.Empty(t, other.Send)
}
