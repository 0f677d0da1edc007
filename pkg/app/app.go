// Package app assembles the reminder components from configuration so the
// bot and MCP binaries share one wiring.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/smith3v/lms-reminder/pkg/auth"
	"github.com/smith3v/lms-reminder/pkg/config"
	"github.com/smith3v/lms-reminder/pkg/dashboard"
	"github.com/smith3v/lms-reminder/pkg/db"
	"github.com/smith3v/lms-reminder/pkg/delivery"
	"github.com/smith3v/lms-reminder/pkg/history"
	"github.com/smith3v/lms-reminder/pkg/kv"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/reminders"
	"github.com/smith3v/lms-reminder/pkg/settings"
)

type App struct {
	Config   config.Config
	KV       kv.Store
	Settings *settings.Store
	History  *history.Log
	Pending  *delivery.Store
	Sessions *auth.Context
	Engine   *reminders.Engine
	Trigger  *reminders.Trigger

	closers []func() error
}

// New builds every component on top of db.DB, which must already be
// initialized. Redis backs settings and history when redis.url is set.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if db.DB == nil {
		return nil, errors.New("database is not initialized")
	}

	a := &App{Config: cfg}
	store, err := a.openKV(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.KV = store

	loc := cfg.Location()
	client := dashboard.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, loc)

	a.Settings = settings.NewStore(store)
	a.History = history.NewLog(store, cfg.Reminders.HistoryCapacity)
	a.Pending = delivery.NewStore(db.DB)
	a.Sessions = auth.NewContext(client, auth.Credentials{
		Username: cfg.Backend.Username,
		Password: cfg.Backend.Password,
	})
	a.Engine = reminders.NewEngine(
		dashboard.NewProvider(client, a.Sessions),
		a.Settings,
		a.Pending,
		reminders.WithLocation(loc),
	)
	a.Trigger = reminders.NewTrigger(a.Engine, a.Sessions, cfg.Reminders.SyncInterval)
	return a, nil
}

func (a *App) openKV(ctx context.Context, cfg config.RedisConfig) (kv.Store, error) {
	if cfg.URL == "" {
		return kv.NewGormStore(db.DB), nil
	}
	client, err := kv.DialRedis(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	logger.Info("using redis for settings and history", "prefix", cfg.KeyPrefix)
	return kv.NewRedisStore(client, cfg.KeyPrefix), nil
}

// Dispatcher delivers due notifications through sender and records them in
// the history log.
func (a *App) Dispatcher(sender delivery.Sender) *delivery.Dispatcher {
	return delivery.NewDispatcher(a.Pending, sender, history.NewReceiptHook(a.History))
}

func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	a.closers = nil
	return errors.Join(errs...)
}
