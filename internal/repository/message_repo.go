package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/bubbles/internal/db"
	"github.com/oggyb/bubbles/internal/utils/pagination"
)

// MessageRepository provides message storage, connection-style pagination
// and read tracking.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// ConnectionInput carries relay-style connection arguments. Callers combine
// one of First/Last with at most one of After/Before.
type ConnectionInput struct {
	First  int
	After  string
	Last   int
	Before string
}

// MessageEdge pairs a message with its opaque cursor.
type MessageEdge struct {
	Cursor string     `json:"cursor"`
	Node   db.Message `json:"node"`
}

// PageInfo exposes lazily evaluated page probes. Neither field is computed
// until called; a caller that does not ask for them pays nothing.
type PageInfo struct {
	HasNextPage     func(ctx context.Context) (bool, error)
	HasPreviousPage func(ctx context.Context) (bool, error)
}

// MessagePage is one page of a match's message connection.
type MessagePage struct {
	Edges    []MessageEdge
	PageInfo PageInfo
}

// CreateMessage inserts a message row.
func (r *MessageRepository) CreateMessage(ctx context.Context, message *db.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetMessagePage computes one page of a match's messages.
//
// Messages are ordered newest-first by id. Because the list is
// reverse-chronological the cursor directions invert: Before means strictly
// newer (id > cursor), After means strictly older (id < cursor). The page
// is limited to First (or Last) rows. An unknown matchID yields an empty
// edge list, not an error.
func (r *MessageRepository) GetMessagePage(ctx context.Context, matchID uint64, conn ConnectionInput) (*MessagePage, error) {
	// cursorID == 0 means no cursor filter; "newerThan" tracks which
	// direction the filter (and the hasNextPage probe) points
	var cursorID uint64
	newerThan := false

	if conn.Before != "" {
		id, err := pagination.Decode(conn.Before)
		if err != nil {
			return nil, err
		}
		cursorID = id
		newerThan = true
	}
	if conn.After != "" {
		id, err := pagination.Decode(conn.After)
		if err != nil {
			return nil, err
		}
		cursorID = id
		newerThan = false
	}

	limit := conn.First
	if limit == 0 {
		limit = conn.Last
	}

	query := r.db.WithContext(ctx).Where("match_id = ?", matchID)
	if cursorID > 0 {
		if newerThan {
			query = query.Where("id > ?", cursorID)
		} else {
			query = query.Where("id < ?", cursorID)
		}
	}
	query = query.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []db.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	edges := make([]MessageEdge, 0, len(messages))
	for _, m := range messages {
		edges = append(edges, MessageEdge{Cursor: pagination.Encode(m.ID), Node: m})
	}

	page := &MessagePage{Edges: edges}
	page.PageInfo = PageInfo{
		HasNextPage: func(probeCtx context.Context) (bool, error) {
			if len(messages) == 0 || (limit > 0 && len(messages) < limit) {
				return false, nil
			}
			// probe strictly beyond the last returned row, same direction
			lastID := messages[len(messages)-1].ID
			probe := r.db.WithContext(probeCtx).Model(&db.Message{}).Where("match_id = ?", matchID)
			if newerThan {
				probe = probe.Where("id > ?", lastID)
			} else {
				probe = probe.Where("id < ?", lastID)
			}
			return exists(probe.Order("id DESC"))
		},
		HasPreviousPage: func(probeCtx context.Context) (bool, error) {
			// re-applies this query's own cursor filter, ascending; with no
			// cursor it degenerates to "any message in the match"
			probe := r.db.WithContext(probeCtx).Model(&db.Message{}).Where("match_id = ?", matchID)
			if cursorID > 0 {
				if newerThan {
					probe = probe.Where("id > ?", cursorID)
				} else {
					probe = probe.Where("id < ?", cursorID)
				}
			}
			return exists(probe.Order("id ASC"))
		},
	}
	return page, nil
}

func exists(query *gorm.DB) (bool, error) {
	var m db.Message
	err := query.Select("id").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountMessages returns the total message count for a match.
func (r *MessageRepository) CountMessages(ctx context.Context, matchID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ?", matchID).
		Count(&count).Error
	return count, err
}

// GetLastRead returns the message the user's last-read marker points at,
// or nil when the user has never read this match.
func (r *MessageRepository) GetLastRead(ctx context.Context, userID, matchID uint64) (*db.Message, error) {
	var marker db.LastRead
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND match_id = ?", userID, matchID).
		First(&marker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var message db.Message
	err = r.db.WithContext(ctx).First(&message, marker.MessageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// SetLastRead moves the user's marker for a match. Upsert keeps a single
// active pointer per (user, match) pair.
func (r *MessageRepository) SetLastRead(ctx context.Context, userID, matchID, messageID uint64) error {
	marker := db.LastRead{UserID: userID, MatchID: matchID, MessageID: messageID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "match_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"message_id", "updated_at"}),
		}).
		Create(&marker).Error
}

// UnreadCount computes the user's unread messages in a match: every message
// when no marker exists, otherwise messages created after the marker's
// message.
func (r *MessageRepository) UnreadCount(ctx context.Context, matchID, userID uint64) (int64, error) {
	lastRead, err := r.GetLastRead(ctx, userID, matchID)
	if err != nil {
		return 0, err
	}
	if lastRead == nil {
		return r.CountMessages(ctx, matchID)
	}

	var count int64
	err = r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND created_at > ?", matchID, lastRead.CreatedAt).
		Count(&count).Error
	return count, err
}
