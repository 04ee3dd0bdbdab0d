package pubsub_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/bubbles/internal/db"
	"github.com/oggyb/bubbles/internal/pubsub"
)

func setupBroadcaster(t *testing.T) *pubsub.Broadcaster {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bc := pubsub.NewBroadcaster(rdb, logger)
	t.Cleanup(bc.Close)
	return bc
}

func acceptAll(pubsub.Event) (bool, error) { return true, nil }

func waitForEvent(t *testing.T, sub *pubsub.Subscriber) pubsub.Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return pubsub.Event{}
	}
}

func assertNoEvent(t *testing.T, sub *pubsub.Subscriber) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPublishReachesFilteredSubscriber(t *testing.T) {
	ctx := context.Background()
	bc := setupBroadcaster(t)

	sub := bc.Subscribe(pubsub.TopicMessageAdded, acceptAll)

	bc.Publish(ctx, pubsub.TopicMessageAdded, pubsub.MessageAddedEvent{
		Message: db.Message{ID: 42, MatchID: 7, UserID: 1, Text: "hi"},
	})

	ev := waitForEvent(t, sub)
	assert.Equal(t, pubsub.TopicMessageAdded, ev.Topic)

	var payload pubsub.MessageAddedEvent
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, uint64(42), payload.Message.ID)
	assert.Equal(t, uint64(7), payload.Message.MatchID)
}

func TestFilterRejectionSuppressesDelivery(t *testing.T) {
	ctx := context.Background()
	bc := setupBroadcaster(t)

	sub := bc.Subscribe(pubsub.TopicMatchAdded, func(pubsub.Event) (bool, error) { return false, nil })

	bc.Publish(ctx, pubsub.TopicMatchAdded, pubsub.MatchAddedEvent{Match: db.Match{ID: 1}})
	assertNoEvent(t, sub)
}

func TestFilterErrorIsIsolatedPerSubscriber(t *testing.T) {
	ctx := context.Background()
	bc := setupBroadcaster(t)

	broken := bc.Subscribe(pubsub.TopicMessageAdded, func(pubsub.Event) (bool, error) {
		return false, errors.New("boom")
	})
	healthy := bc.Subscribe(pubsub.TopicMessageAdded, acceptAll)

	bc.Publish(ctx, pubsub.TopicMessageAdded, pubsub.MessageAddedEvent{
		Message: db.Message{ID: 1, MatchID: 1, UserID: 2},
	})

	waitForEvent(t, healthy)
	assertNoEvent(t, broken)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	bc := setupBroadcaster(t)

	sub := bc.Subscribe(pubsub.TopicMessageAdded, acceptAll)
	bc.Unsubscribe(sub)

	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel should be closed after unsubscribe")
	}

	bc.Publish(ctx, pubsub.TopicMessageAdded, pubsub.MessageAddedEvent{
		Message: db.Message{ID: 1, MatchID: 1, UserID: 2},
	})
	assertNoEvent(t, sub)
}

func TestTopicsAreIndependent(t *testing.T) {
	ctx := context.Background()
	bc := setupBroadcaster(t)

	matchSub := bc.Subscribe(pubsub.TopicMatchAdded, acceptAll)
	messageSub := bc.Subscribe(pubsub.TopicMessageAdded, acceptAll)

	bc.Publish(ctx, pubsub.TopicMessageAdded, pubsub.MessageAddedEvent{
		Message: db.Message{ID: 5, MatchID: 3, UserID: 1},
	})

	waitForEvent(t, messageSub)
	assertNoEvent(t, matchSub)
}
