package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/bubbles/internal/cache"
	"github.com/oggyb/bubbles/internal/notify"
	"github.com/oggyb/bubbles/internal/pubsub"
)

// AppContext holds shared dependencies (DB, Redis, Broadcaster, etc.)
type AppContext struct {
	DB          *gorm.DB
	RedisCache  *cache.RedisCache
	Broadcaster *pubsub.Broadcaster
	Notifier    notify.Notifier
	Logger      *slog.Logger
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, bc *pubsub.Broadcaster, notifier notify.Notifier, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:          db,
		RedisCache:  rdb,
		Broadcaster: bc,
		Notifier:    notifier,
		Logger:      logger,
	}
}
