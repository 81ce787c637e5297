// Package app assembles the client out of its parts with fx: store,
// API client, executor, long-poll listener and the local mirror, all
// scoped to one session.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/At1ass/VK-TUI/internal/bus"
	"github.com/At1ass/VK-TUI/internal/config"
	"github.com/At1ass/VK-TUI/internal/executor"
	"github.com/At1ass/VK-TUI/internal/lock"
	"github.com/At1ass/VK-TUI/internal/logging"
	"github.com/At1ass/VK-TUI/internal/longpoll"
	"github.com/At1ass/VK-TUI/internal/mirror"
	"github.com/At1ass/VK-TUI/internal/session"
	"github.com/At1ass/VK-TUI/internal/store"
	"github.com/At1ass/VK-TUI/internal/vkapi"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module composing all providers and lifecycle
// hooks. The TUI itself is constructed by the caller on top of the bus
// and executor this module provides.
func Module(p Params) fx.Option {
	return fx.Module("app",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			provideClient,
			provideExecutor,
			provideListener,
			provideRecorder,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	// File-only: the TUI owns the terminal.
	return logging.NewFileOnly(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("config unreadable, using defaults", zap.Error(err))
		}
		return &config.Config{}
	}
	return cfg
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideClient(p Params, cfg *config.Config) (*vkapi.Client, error) {
	token := config.LoadEnv(session.ConfigPath())
	if token == "" {
		td, err := vkapi.LoadToken(session.TokenPath(p.SessionName))
		if err != nil {
			return nil, err
		}
		if td == nil || td.Expired() {
			return nil, fmt.Errorf("no valid token for session %q, sign in first", p.SessionName)
		}
		token = td.AccessToken
	}

	var opts []vkapi.Option
	if cfg.APIBaseURL != "" {
		opts = append(opts, vkapi.WithBaseURL(cfg.APIBaseURL))
	}
	return vkapi.New(token, opts...), nil
}

func provideExecutor(client *vkapi.Client, b *bus.Bus, logger *zap.Logger) *executor.Executor {
	return executor.New(client, b, logger)
}

func provideListener(client *vkapi.Client, b *bus.Bus, db *store.DB, cfg *config.Config, logger *zap.Logger) *longpoll.Listener {
	opts := []longpoll.Option{longpoll.WithCursorStore(db)}
	if cfg.LongPollWait > 0 {
		opts = append(opts, longpoll.WithWait(cfg.LongPollWait))
	}
	return longpoll.New(client, b, logger, opts...)
}

func provideRecorder(db *store.DB, b *bus.Bus, logger *zap.Logger) *mirror.Recorder {
	return mirror.NewRecorder(db, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, listener *longpoll.Listener, recorder *mirror.Recorder, exec *executor.Executor, db *store.DB, logger *zap.Logger) {
	var cancel context.CancelFunc
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The recorder must be attached before the listener emits
			// anything, or early push deltas would miss the mirror.
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			recorder.Start(ctx)
			go func() {
				defer close(done)
				_ = listener.Run(ctx)
			}()

			logger.Info("client started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			exec.Wait()
			recorder.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
