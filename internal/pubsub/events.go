package pubsub

import (
	"github.com/oggyb/bubbles/internal/db"
)

// Topics carried by the broadcaster.
const (
	TopicMessageAdded = "messageAdded"
	TopicMatchAdded   = "matchAdded"
)

// MessageAddedEvent is published after a message row is durably created.
type MessageAddedEvent struct {
	Message db.Message `json:"message"`
}

// MatchAddedEvent is published after a match row is durably created.
// Match.Users is populated so delivery filters never need a DB lookup, and
// InitiatorID identifies whose decision completed the match.
type MatchAddedEvent struct {
	Match       db.Match `json:"match"`
	InitiatorID uint64   `json:"initiatorId"`
}
