package main

import (
	"context"

	"github.com/oggyb/bubbles/internal/app"
	"github.com/oggyb/bubbles/internal/cache"
	"github.com/oggyb/bubbles/internal/config"
	"github.com/oggyb/bubbles/internal/db"
	"github.com/oggyb/bubbles/internal/logger"
	"github.com/oggyb/bubbles/internal/middleware"
	"github.com/oggyb/bubbles/internal/notify"
	"github.com/oggyb/bubbles/internal/pubsub"
	"github.com/oggyb/bubbles/internal/server"
	"github.com/oggyb/bubbles/internal/service/account"
	"github.com/oggyb/bubbles/internal/service/chat"
	"github.com/oggyb/bubbles/internal/service/decide"
	"github.com/oggyb/bubbles/internal/ws"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Event fan-out rides the same Redis instance
	broadcaster := pubsub.NewBroadcaster(redisCache.Client, logger.Named("pubsub"))
	defer broadcaster.Close()

	appCtx := app.New(database, redisCache, broadcaster, &notify.LogNotifier{Logger: logger.Named("notify")}, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	registrars := []server.Registrar{
		account.NewRegistrar(appCtx, cfg.JWT.Secret),
		chat.NewRegistrar(appCtx),
		decide.NewRegistrar(appCtx),
		ws.NewRegistrar(appCtx, cfg.JWT.Secret),
	}

	router := server.NewRouter(cfg, middleware.Auth(cfg.JWT.Secret), registrars...)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, router); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
