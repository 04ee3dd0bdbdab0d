package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/bubbles/internal/db"
)

// DecisionRepository records like/dislike/skip decisions and creates the
// matches they give rise to.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB connection.
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// DecisionOutcome reports what CreateDecision did. Match is non-nil only
// when this decision created one.
type DecisionOutcome struct {
	Decision db.Decision
	Created  bool
	Match    *db.Match
}

// CreateDecision applies one directed decision who -> whom.
//
// Behavior:
//   - An existing non-skipped decision for the ordered pair is returned
//     unchanged; nothing new is recorded.
//   - Otherwise the decision row is inserted.
//   - liked: if the reverse decision (whom -> who) is a like, a "liked"
//     match linking the pair is created, initiated by who.
//   - disliked: a "disliked" match is created unconditionally, no
//     mutuality check.
//
// The existing-decision probe, insert, mutual probe and match insert run in
// one transaction so two concurrent likes on the same pair cannot both
// create a match.
func (r *DecisionRepository) CreateDecision(
	ctx context.Context,
	whoID, whomID uint64,
	status string,
) (*DecisionOutcome, error) {
	outcome := &DecisionOutcome{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db.Decision
		err := tx.Where("who_id = ? AND whom_id = ?", whoID, whomID).
			Order("id DESC").
			First(&existing).Error
		if err == nil && existing.Status != db.DecisionSkipped {
			outcome.Decision = existing
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		decision := db.Decision{WhoID: whoID, WhomID: whomID, Status: status}
		if err := tx.Create(&decision).Error; err != nil {
			return err
		}
		outcome.Decision = decision
		outcome.Created = true

		switch status {
		case db.DecisionLiked:
			var reverse db.Decision
			err := tx.Where("who_id = ? AND whom_id = ? AND status = ?", whomID, whoID, db.DecisionLiked).
				First(&reverse).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			match, err := createMatch(tx, db.MatchLiked, whoID, whomID)
			if err != nil {
				return err
			}
			outcome.Match = match

		case db.DecisionDisliked:
			match, err := createMatch(tx, db.MatchDisliked, whoID, whomID)
			if err != nil {
				return err
			}
			outcome.Match = match
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func createMatch(tx *gorm.DB, status string, initiatorID, otherID uint64) (*db.Match, error) {
	var users []db.User
	if err := tx.Find(&users, []uint64{initiatorID, otherID}).Error; err != nil {
		return nil, err
	}
	match := db.Match{Status: status, InitiatorID: initiatorID, Users: users}
	// Omit("Users.*") creates the join rows without re-saving the user rows
	if err := tx.Omit("Users.*").Create(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// HasLiked checks whether who has an active "liked" decision on whom.
func (r *DecisionRepository) HasLiked(ctx context.Context, whoID, whomID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Decision{}).
		Where("who_id = ? AND whom_id = ? AND status = ?", whoID, whomID, db.DecisionLiked).
		Count(&count).Error
	return count > 0, err
}

// DecidedUserIDs returns every user the given user has already liked or
// disliked. Skipped decisions do not remove a candidate.
func (r *DecisionRepository) DecidedUserIDs(ctx context.Context, whoID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Decision{}).
		Distinct().
		Where("who_id = ? AND status IN ?", whoID, []string{db.DecisionLiked, db.DecisionDisliked}).
		Pluck("whom_id", &ids).Error
	return ids, err
}
