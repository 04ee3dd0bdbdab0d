package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/bubbles/internal/db"
	"github.com/oggyb/bubbles/internal/repository"
)

// setup in-memory DB with two seeded users
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	users := []db.User{
		{ID: 1, Username: "alice", Email: "alice@test.com", PasswordHash: "x", Gender: "female"},
		{ID: 2, Username: "bob", Email: "bob@test.com", PasswordHash: "x", Gender: "male"},
	}
	require.NoError(t, database.Create(&users).Error)
	return database
}

func countMatches(t *testing.T, database *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.Model(&db.Match{}).Count(&n).Error)
	return n
}

func TestLikeWithoutReciprocalCreatesNoMatch(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewDecisionRepository(database)

	outcome, err := repo.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	assert.True(t, outcome.Created)
	assert.Nil(t, outcome.Match)
	assert.Equal(t, int64(0), countMatches(t, database))

	var decisions []db.Decision
	require.NoError(t, database.Find(&decisions).Error)
	require.Len(t, decisions, 1)
	assert.Equal(t, uint64(1), decisions[0].WhoID)
	assert.Equal(t, uint64(2), decisions[0].WhomID)
	assert.Equal(t, db.DecisionLiked, decisions[0].Status)
}

func TestMutualLikeCreatesExactlyOneMatch(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewDecisionRepository(database)

	_, err := repo.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	outcome, err := repo.CreateDecision(ctx, 2, 1, db.DecisionLiked)
	require.NoError(t, err)

	require.NotNil(t, outcome.Match)
	assert.Equal(t, db.MatchLiked, outcome.Match.Status)
	assert.Equal(t, uint64(2), outcome.Match.InitiatorID, "the liking-back party initiates the match")
	assert.Equal(t, int64(1), countMatches(t, database))

	// both users are linked
	var linked int64
	require.NoError(t, database.Table("match_users").Where("match_id = ?", outcome.Match.ID).Count(&linked).Error)
	assert.Equal(t, int64(2), linked)
}

func TestDislikeCreatesMatchUnconditionally(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewDecisionRepository(database)

	outcome, err := repo.CreateDecision(ctx, 1, 2, db.DecisionDisliked)
	require.NoError(t, err)

	require.NotNil(t, outcome.Match)
	assert.Equal(t, db.MatchDisliked, outcome.Match.Status)
	assert.Equal(t, uint64(1), outcome.Match.InitiatorID)
	assert.Equal(t, int64(1), countMatches(t, database))
}

func TestExistingNonSkippedDecisionIsReturnedUnchanged(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewDecisionRepository(database)

	first, err := repo.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	second, err := repo.CreateDecision(ctx, 1, 2, db.DecisionDisliked)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Nil(t, second.Match, "a swallowed re-decision must not create a match")
	assert.Equal(t, first.Decision.ID, second.Decision.ID)
	assert.Equal(t, db.DecisionLiked, second.Decision.Status)

	var n int64
	require.NoError(t, database.Model(&db.Decision{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSkippedDecisionMayBeReplaced(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewDecisionRepository(database)

	_, err := repo.CreateDecision(ctx, 1, 2, db.DecisionSkipped)
	require.NoError(t, err)

	outcome, err := repo.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	assert.True(t, outcome.Created)
	assert.Equal(t, db.DecisionLiked, outcome.Decision.Status)
}

func TestHasLiked(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewDecisionRepository(database)

	liked, err := repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = repo.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)

	liked, err = repo.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestDecidedUserIDsIgnoresSkips(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewDecisionRepository(database)

	require.NoError(t, database.Create(&db.User{ID: 3, Username: "carol", Email: "carol@test.com", PasswordHash: "x", Gender: "female"}).Error)

	_, err := repo.CreateDecision(ctx, 1, 2, db.DecisionLiked)
	require.NoError(t, err)
	_, err = repo.CreateDecision(ctx, 1, 3, db.DecisionSkipped)
	require.NoError(t, err)

	ids, err := repo.DecidedUserIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids)
}
