package db

import (
	"time"
)

// Decision statuses. A skipped decision may be replaced later; liked and
// disliked are final for the ordered pair.
const (
	DecisionLiked    = "liked"
	DecisionDisliked = "disliked"
	DecisionSkipped  = "skipped"
)

// Match statuses. "liked" means both directed decisions were likes;
// "disliked" means at least one party disliked.
const (
	MatchLiked    = "liked"
	MatchDisliked = "disliked"
)

// User table
type User struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"size:64" json:"username"`
	Email          string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	Version        int       `gorm:"default:1" json:"-"`
	Gender         string    `gorm:"size:16" json:"gender"`
	Location       string    `gorm:"size:64" json:"location"`
	Age            int       `json:"age"`
	Status         string    `gorm:"size:32" json:"status"`
	BadgeCount     int       `gorm:"default:0" json:"badgeCount"`
	RegistrationID string    `gorm:"size:255" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Decision is a directed like/dislike/skip judgment who -> whom.
//
// Rows are append-only: a pair gets a second row only when the prior
// decision was "skipped". The (who_id, whom_id) index serves the
// existing-decision and mutual-like probes in DecisionRepository.
type Decision struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	WhoID     uint64    `gorm:"not null;index:idx_who_whom,priority:1" json:"whoId"`
	WhomID    uint64    `gorm:"not null;index:idx_who_whom,priority:2" json:"whomId"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// Match links exactly two users. InitiatorID records whose decision created
// the match; subscription delivery excludes the initiator rather than
// guessing from user ordering.
type Match struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Status      string    `gorm:"size:16;not null" json:"status"`
	InitiatorID uint64    `gorm:"not null" json:"initiatorId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	Users       []User    `gorm:"many2many:match_users" json:"users,omitempty"`
}

// Message belongs to one match and one author. The auto-increment id is the
// pagination cursor source and stands in for creation order.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MatchID   uint64    `gorm:"not null;index:idx_match_id" json:"matchId"`
	UserID    uint64    `gorm:"not null" json:"userId"`
	Text      string    `gorm:"size:4096;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// LastRead points at the most recent message a user has seen in a match.
// One active pointer per (user, match); updates overwrite in place.
type LastRead struct {
	UserID    uint64    `gorm:"primaryKey" json:"userId"`
	MatchID   uint64    `gorm:"primaryKey" json:"matchId"`
	MessageID uint64    `gorm:"not null" json:"messageId"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
