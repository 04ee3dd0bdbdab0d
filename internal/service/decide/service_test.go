package decide_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/bubbles/internal/app"
	"github.com/oggyb/bubbles/internal/cache"
	"github.com/oggyb/bubbles/internal/config"
	"github.com/oggyb/bubbles/internal/db"
	svcErr "github.com/oggyb/bubbles/internal/errors"
	"github.com/oggyb/bubbles/internal/notify"
	"github.com/oggyb/bubbles/internal/pubsub"
	"github.com/oggyb/bubbles/internal/service/decide"
)

// setupService spins up an in-memory SQLite DB, a miniredis, and a
// broadcaster, and wires everything into a decision service. Each test
// gets its own isolated stack.
//
// Seeded users: 1 (alice, female, London), 2 (bob, male, London),
// 3 (carl, male, London), 4 (dora, female, Berlin).
func setupService(t *testing.T) (*decide.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))

	users := []db.User{
		{ID: 1, Username: "alice", Email: "a@test.com", PasswordHash: "x", Gender: "female", Location: "London", Status: "single"},
		{ID: 2, Username: "bob", Email: "b@test.com", PasswordHash: "x", Gender: "male", Location: "London", Status: "single"},
		{ID: 3, Username: "carl", Email: "c@test.com", PasswordHash: "x", Gender: "male", Location: "London", Status: "single"},
		{ID: 4, Username: "dora", Email: "d@test.com", PasswordHash: "x", Gender: "female", Location: "Berlin", Status: "single"},
	}
	require.NoError(t, database.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests
	broadcaster := pubsub.NewBroadcaster(redisCache.Client, logger)
	t.Cleanup(broadcaster.Close)

	appCtx := app.New(database, redisCache, broadcaster, &notify.LogNotifier{Logger: logger}, logger)
	return decide.NewService(appCtx), appCtx
}

func acceptAll(pubsub.Event) (bool, error) { return true, nil }

func TestFirstLikePublishesNothing(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	sub := appCtx.Broadcaster.Subscribe(pubsub.TopicMatchAdded, acceptAll)

	decision, err := svc.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)
	assert.Equal(t, db.DecisionLiked, decision.Status)

	select {
	case ev := <-sub.Events():
		t.Fatalf("no match event expected, got %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMutualLikePublishesMatchOnce(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	sub := appCtx.Broadcaster.Subscribe(pubsub.TopicMatchAdded, acceptAll)

	_, err := svc.CreateDecision(ctx, 2, 1, db.DecisionLiked)
	require.NoError(t, err)
	_, err = svc.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	var payload pubsub.MatchAddedEvent
	select {
	case ev := <-sub.Events():
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for match event")
	}

	assert.Equal(t, db.MatchLiked, payload.Match.Status)
	assert.Equal(t, uint64(1), payload.InitiatorID, "the second actor initiates")
	ids := []uint64{payload.Match.Users[0].ID, payload.Match.Users[1].ID}
	assert.ElementsMatch(t, []uint64{1, 2}, ids)

	// exactly once
	select {
	case ev := <-sub.Events():
		t.Fatalf("duplicate match event: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}

	var n int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDislikePublishesDislikedMatch(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	sub := appCtx.Broadcaster.Subscribe(pubsub.TopicMatchAdded, acceptAll)

	_, err := svc.CreateDecision(ctx, 1, 3, db.DecisionDisliked)
	require.NoError(t, err)

	var payload pubsub.MatchAddedEvent
	select {
	case ev := <-sub.Events():
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for match event")
	}
	assert.Equal(t, db.MatchDisliked, payload.Match.Status)
	assert.Equal(t, uint64(1), payload.InitiatorID)
}

func TestRepeatDecisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	first, err := svc.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	sub := appCtx.Broadcaster.Subscribe(pubsub.TopicMatchAdded, acceptAll)

	second, err := svc.CreateDecision(ctx, 1, 2, db.DecisionDisliked)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, db.DecisionLiked, second.Status)

	select {
	case ev := <-sub.Events():
		t.Fatalf("no event expected for swallowed re-decision, got %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCreateDecisionValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.CreateDecision(ctx, 1, 2, "adored")
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = svc.CreateDecision(ctx, 1, 1, db.DecisionLiked)
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)

	_, err = svc.CreateDecision(ctx, 1, 999, db.DecisionLiked)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestCandidatesExcludeDecidedAndMismatched(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// alice (London, female) sees bob and carl; dora is in Berlin
	users, err := svc.Candidates(ctx, 1)
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = svc.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	users, err = svc.Candidates(ctx, 1)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, uint64(3), users[0].ID)
}
