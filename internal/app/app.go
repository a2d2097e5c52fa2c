// Package app wires configuration into connected stores, the change hub and
// the services shared by the server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"servicepulse/backend/internal/auth"
	"servicepulse/backend/internal/changehub"
	"servicepulse/backend/internal/complaint"
	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/notify"
	"servicepulse/backend/internal/prediction"
	"servicepulse/backend/internal/storage"
	"servicepulse/backend/internal/telegram"
	"servicepulse/backend/internal/upstream"
)

type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Store      storage.Store
	Hub        *changehub.Hub
	Complaints *complaint.Service
	Auth       *auth.Service
	Policy     *auth.Policy
	// Bot is nil when no bot token is configured.
	Bot *telegram.BotService

	closers []func() error
	log     *slog.Logger
}

// Options tweak what Build starts.
type Options struct {
	// WithBot connects the Telegram bot when a token is configured.
	WithBot bool
}

// Build opens every configured connection and constructs the services. On
// error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	a := &App{Config: cfg, log: logger.WithComponent("app")}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.openConnections(ctx); err != nil {
		return nil, err
	}

	a.Store, err = storage.New(cfg, a.DB, a.Redis)
	if err != nil {
		return nil, err
	}

	broadcaster, err := a.broadcaster()
	if err != nil {
		return nil, err
	}
	a.Hub = changehub.NewHub(a.Store, broadcaster)

	a.Complaints = complaint.NewService(a.Store, a.Hub,
		complaint.WithPredictor(prediction.NewClient(cfg.Prediction)),
		complaint.WithUpstream(upstream.NewClient(cfg.Upstream)),
	)

	var announcers notify.Multi
	if cfg.SMTP.Host != "" {
		announcers = append(announcers, notify.NewMailer(cfg.SMTP))
	}
	if opts.WithBot && cfg.Telegram.BotToken != "" {
		a.Bot, err = telegram.NewBotService(cfg.Telegram, a.Complaints)
		if err != nil {
			return nil, err
		}
		announcers = append(announcers, a.Bot)
	}
	if len(announcers) > 0 {
		a.Complaints.Announcer = announcers
	}

	a.Policy, err = auth.NewPolicy(a.DB)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	a.Auth = auth.NewService(a.Store, a.Hub,
		auth.NewTokenIssuer(cfg.Auth), auth.NewHasher(cfg.Auth.BcryptCost), a.Complaints)

	a.log.Info("services ready",
		"storage", cfg.Storage.Driver,
		"broadcast", cfg.Broadcast.Driver,
		"upstream", cfg.Upstream.BaseURL != "",
		"prediction", cfg.Prediction.BaseURL != "",
		"telegram", a.Bot != nil,
	)
	return a, nil
}

func (a *App) openConnections(ctx context.Context) error {
	cfg := a.Config
	if storage.IsRelational(strings.ToLower(cfg.Storage.Driver)) {
		db, err := storage.OpenDB(cfg.Storage)
		if err != nil {
			return err
		}
		a.DB = db
		a.closers = append(a.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}

	if strings.EqualFold(cfg.Storage.Driver, "redis") || strings.EqualFold(cfg.Broadcast.Driver, "redis") {
		rdb, err := storage.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = rdb
		a.closers = append(a.closers, rdb.Close)
	}
	return nil
}

func (a *App) broadcaster() (changehub.Broadcaster, error) {
	cfg := a.Config.Broadcast
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, nil
	case "redis":
		return changehub.NewRedisBroadcaster(a.Redis, cfg.Channel), nil
	case "postgres":
		b, err := changehub.NewPostgresBroadcaster(a.Config.Storage.DSN, cfg.Channel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		return b, nil
	}
	return nil, fmt.Errorf("unknown broadcast driver %q", cfg.Driver)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
