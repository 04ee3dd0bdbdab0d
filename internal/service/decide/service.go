package decide

import (
	"context"

	"github.com/oggyb/bubbles/internal/app"
	"github.com/oggyb/bubbles/internal/db"
	svcErr "github.com/oggyb/bubbles/internal/errors"
	"github.com/oggyb/bubbles/internal/pubsub"
	"github.com/oggyb/bubbles/internal/repository"
)

// Service implements the decision API: recording like/dislike/skip
// judgments, the mutual-like match rule, and candidate listing.
type Service struct {
	appCtx       *app.AppContext
	decisionRepo *repository.DecisionRepository
	userRepo     *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		decisionRepo: repository.NewDecisionRepository(appCtx.DB),
		userRepo:     repository.NewUserRepository(appCtx.DB),
	}
}

func validStatus(status string) bool {
	switch status {
	case db.DecisionLiked, db.DecisionDisliked, db.DecisionSkipped:
		return true
	}
	return false
}

// CreateDecision records the current user's decision about personID.
//
// An existing non-skipped decision for the pair is returned unchanged. A
// like that completes a mutual pair, or any fresh dislike, creates a match
// as a side effect; the match is announced on the matchAdded topic with the
// current user recorded as initiator, and is otherwise not returned.
func (s *Service) CreateDecision(ctx context.Context, currentUserID, personID uint64, status string) (*db.Decision, error) {
	s.appCtx.Logger.Debug("CreateDecision called", "who", currentUserID, "whom", personID, "status", status)

	if !validStatus(status) {
		return nil, svcErr.InvalidArgument("status must be liked, disliked or skipped")
	}
	if currentUserID == personID {
		return nil, svcErr.InvalidArgument("cannot decide on yourself")
	}

	person, err := s.userRepo.GetByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, svcErr.ErrNotFound
	}

	outcome, err := s.decisionRepo.CreateDecision(ctx, currentUserID, personID, status)
	if err != nil {
		return nil, err
	}

	if outcome.Match != nil {
		s.appCtx.Logger.Info("match created",
			"match_id", outcome.Match.ID, "status", outcome.Match.Status, "initiator", currentUserID)
		s.appCtx.Broadcaster.Publish(ctx, pubsub.TopicMatchAdded, pubsub.MatchAddedEvent{
			Match:       *outcome.Match,
			InitiatorID: currentUserID,
		})
	}

	return &outcome.Decision, nil
}

// Candidates lists profiles the current user has not yet liked or disliked.
func (s *Service) Candidates(ctx context.Context, currentUserID uint64) ([]db.User, error) {
	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, svcErr.ErrUnauthorized
	}

	decided, err := s.decisionRepo.DecidedUserIDs(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.Candidates(ctx, user, decided)
}
