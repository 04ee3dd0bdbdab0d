package notify

import (
	"context"
	"log/slog"
)

// Notification is the contract a push provider must satisfy. Delivery
// mechanics (FCM/APNs transport, retries) live behind the interface.
type Notification struct {
	To      string // device registration token
	Title   string
	Body    string
	Badge   int
	Type    string // e.g. MESSAGE_ADDED
	MatchID uint64
}

type Notifier interface {
	Send(ctx context.Context, n Notification)
}

// LogNotifier is the default provider: it only records the send.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) Send(_ context.Context, n Notification) {
	l.Logger.Info("push notification",
		"to", n.To, "title", n.Title, "badge", n.Badge, "type", n.Type, "match_id", n.MatchID)
}
