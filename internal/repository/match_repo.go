package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/bubbles/internal/db"
)

// MatchRepository provides data access for matches and match membership.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// GetMatch loads a match with its users. Unknown ids yield (nil, nil):
// read paths report "not found" as null rather than an error.
func (r *MatchRepository) GetMatch(ctx context.Context, id uint64) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).Preload("Users").First(&match, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// MatchesForUser returns every match the user belongs to, users preloaded,
// newest first.
func (r *MatchRepository) MatchesForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Joins("JOIN match_users mu ON mu.match_id = matches.id").
		Where("mu.user_id = ?", userID).
		Order("matches.id DESC").
		Preload("Users").
		Find(&matches).Error
	return matches, err
}

// UserBelongsToMatch reports whether the user is one of the match's two
// participants.
func (r *MatchRepository) UserBelongsToMatch(ctx context.Context, userID, matchID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("match_users").
		Where("user_id = ? AND match_id = ?", userID, matchID).
		Count(&count).Error
	return count > 0, err
}

// ConfirmedMatchIDs narrows the requested ids down to matches the user
// actually belongs to. Used for the subscribe-time authorization check: a
// request set larger than the confirmed set is unauthorized.
func (r *MatchRepository) ConfirmedMatchIDs(ctx context.Context, userID uint64, matchIDs []uint64) ([]uint64, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}
	var confirmed []uint64
	err := r.db.WithContext(ctx).
		Table("match_users").
		Where("user_id = ? AND match_id IN ?", userID, matchIDs).
		Pluck("match_id", &confirmed).Error
	return confirmed, err
}
