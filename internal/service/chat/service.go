package chat

import (
	"context"
	"fmt"

	"github.com/oggyb/bubbles/internal/app"
	"github.com/oggyb/bubbles/internal/db"
	svcErr "github.com/oggyb/bubbles/internal/errors"
	"github.com/oggyb/bubbles/internal/notify"
	"github.com/oggyb/bubbles/internal/pubsub"
	"github.com/oggyb/bubbles/internal/repository"
)

// Service implements the match/message API: match queries, the message
// connection, message creation and read tracking.
type Service struct {
	appCtx      *app.AppContext
	matchRepo   *repository.MatchRepository
	messageRepo *repository.MessageRepository
	userRepo    *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		messageRepo: repository.NewMessageRepository(appCtx.DB),
		userRepo:    repository.NewUserRepository(appCtx.DB),
	}
}

// Match returns a match with its users, or nil for unknown ids.
func (s *Service) Match(ctx context.Context, id uint64) (*db.Match, error) {
	return s.matchRepo.GetMatch(ctx, id)
}

// Matches returns every match the current user belongs to.
func (s *Service) Matches(ctx context.Context, currentUserID uint64) ([]db.Match, error) {
	return s.matchRepo.MatchesForUser(ctx, currentUserID)
}

// MessagePage delegates to the pagination engine. PageInfo stays lazy; the
// transport layer decides whether to evaluate it.
func (s *Service) MessagePage(ctx context.Context, matchID uint64, conn repository.ConnectionInput) (*repository.MessagePage, error) {
	return s.messageRepo.GetMessagePage(ctx, matchID, conn)
}

// CreateMessage posts a message to a match the current user belongs to.
//
// Side effects after the row is durably created: the other participant's
// badge count is bumped, their cached unread count is invalidated, a push
// notification goes out if they registered a device, and the message is
// announced on the messageAdded topic. Publication is fire-and-forget.
func (s *Service) CreateMessage(ctx context.Context, currentUserID, matchID uint64, text string) (*db.Message, error) {
	if text == "" {
		return nil, svcErr.InvalidArgument("text must not be empty")
	}

	match, err := s.matchRepo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, svcErr.ErrUnauthorized
	}
	var sender *db.User
	for i := range match.Users {
		if match.Users[i].ID == currentUserID {
			sender = &match.Users[i]
		}
	}
	if sender == nil {
		return nil, svcErr.ErrUnauthorized
	}

	message := &db.Message{MatchID: matchID, UserID: currentUserID, Text: text}
	if err := s.messageRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	recipients := make([]uint64, 0, 1)
	for _, u := range match.Users {
		if u.ID != currentUserID {
			recipients = append(recipients, u.ID)
		}
	}
	if err := s.userRepo.IncrementBadge(ctx, recipients); err != nil {
		s.appCtx.Logger.Error("failed to bump badge counts", "match_id", matchID, "err", err)
	}
	if err := s.appCtx.RedisCache.InvalidateUnreadCount(ctx, matchID, recipients...); err != nil {
		s.appCtx.Logger.Warn("failed to invalidate unread cache", "match_id", matchID, "err", err)
	}

	for _, u := range match.Users {
		if u.ID == currentUserID || u.RegistrationID == "" {
			continue
		}
		s.appCtx.Notifier.Send(ctx, notify.Notification{
			To:      u.RegistrationID,
			Title:   fmt.Sprintf("%s @ %d", sender.Username, matchID),
			Body:    text,
			Badge:   u.BadgeCount + 1,
			Type:    "MESSAGE_ADDED",
			MatchID: matchID,
		})
	}

	s.appCtx.Broadcaster.Publish(ctx, pubsub.TopicMessageAdded, pubsub.MessageAddedEvent{Message: *message})

	return message, nil
}

// UnreadCount is cache-first: Redis with a sliding TTL, DB fallback, cache
// refresh on the way out.
func (s *Service) UnreadCount(ctx context.Context, currentUserID, matchID uint64) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetUnreadCount(ctx, currentUserID, matchID); err == nil && ok {
		return n, nil
	}

	count, err := s.messageRepo.UnreadCount(ctx, matchID, currentUserID)
	if err != nil {
		return 0, err
	}
	if err := s.appCtx.RedisCache.SetUnreadCount(ctx, currentUserID, matchID, count); err != nil {
		s.appCtx.Logger.Warn("failed to cache unread count", "user_id", currentUserID, "match_id", matchID, "err", err)
	}
	return count, nil
}

// LastRead returns the message the current user's marker points at, or nil.
func (s *Service) LastRead(ctx context.Context, currentUserID, matchID uint64) (*db.Message, error) {
	return s.messageRepo.GetLastRead(ctx, currentUserID, matchID)
}

// MarkRead moves the current user's last-read marker. The trigger is the
// messaging screen reporting its newest visible message.
func (s *Service) MarkRead(ctx context.Context, currentUserID, matchID, messageID uint64) error {
	member, err := s.matchRepo.UserBelongsToMatch(ctx, currentUserID, matchID)
	if err != nil {
		return err
	}
	if !member {
		return svcErr.ErrUnauthorized
	}

	var message db.Message
	if err := s.appCtx.DB.WithContext(ctx).First(&message, messageID).Error; err != nil {
		return svcErr.ErrNotFound
	}
	if message.MatchID != matchID {
		return svcErr.InvalidArgument("message does not belong to this match")
	}

	if err := s.messageRepo.SetLastRead(ctx, currentUserID, matchID, messageID); err != nil {
		return err
	}
	return s.appCtx.RedisCache.InvalidateUnreadCount(ctx, matchID, currentUserID)
}
