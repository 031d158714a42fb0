package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rijulg06/thriftchain/internal/marketplace"
	"github.com/rijulg06/thriftchain/internal/notify"
	"github.com/rijulg06/thriftchain/internal/server"
	"github.com/rijulg06/thriftchain/internal/server/handler"
	"github.com/rijulg06/thriftchain/internal/server/ws"
)

// writerLockKey serializes service startup. The marketplace is a
// single-writer system: all mutation funnels through one process so the
// per-operation transactions see consistent state.
const writerLockKey = "marketplace:writer"

// ServeMode runs the full service: the HTTP API, the WebSocket hub, the
// notification watcher, and the optional event archiver, all backed by
// Postgres and Redis.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	// Refuse to start while another instance is still booting or draining.
	unlock, err := deps.LockManager.Acquire(ctx, writerLockKey, time.Minute)
	if err != nil {
		return fmt.Errorf("serve mode: acquire writer lock: %w", err)
	}
	defer unlock()

	g, ctx := errgroup.WithContext(ctx)

	market := marketplace.New(marketplace.Deps{
		Tx:       deps.Tx,
		Items:    deps.Items,
		Offers:   deps.Offers,
		Escrows:  deps.Escrows,
		Ledger:   deps.Ledger,
		Events:   deps.Events,
		Counters: deps.Counters,
		Bus:      deps.Bus,
		Cache:    deps.ItemCache,
		Issuer:   deps.Issuer,
		Logger:   a.logger,
	})

	// WebSocket hub fans marketplace events out to connected clients.
	hub := ws.NewHub(deps.Bus, marketplace.EventChannel, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	// Notification watcher forwards operator-relevant events to
	// Telegram/Discord.
	watcher := notify.NewWatcher(deps.Bus, deps.Notifier, marketplace.EventChannel, a.logger)
	g.Go(func() error {
		return watcher.Run(ctx)
	})

	// Periodic event archiver drains the durable stream into object storage.
	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiver(ctx, deps)
		})
	}

	a.startHTTPServer(ctx, g, deps, market, hub)

	return g.Wait()
}

// MemoryMode runs the HTTP API against the in-process store. No Postgres,
// Redis, or S3 is required; events are recorded in the store's log but not
// published anywhere. Intended for local development and demos.
func (a *App) MemoryMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting memory mode")

	g, ctx := errgroup.WithContext(ctx)

	market := marketplace.New(marketplace.Deps{
		Tx:       deps.Tx,
		Items:    deps.Items,
		Offers:   deps.Offers,
		Escrows:  deps.Escrows,
		Ledger:   deps.Ledger,
		Events:   deps.Events,
		Counters: deps.Counters,
		Issuer:   deps.Issuer,
		Logger:   a.logger,
	})

	a.startHTTPServer(ctx, g, deps, market, nil)

	return g.Wait()
}

// MigrateMode applies pending database migrations and exits.
func (a *App) MigrateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running migrations")
	if err := deps.PG.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrate mode: %w", err)
	}
	a.logger.InfoContext(ctx, "migrations applied")
	return nil
}

// startHTTPServer adds the HTTP server goroutines to the given errgroup. The
// server is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	market *marketplace.Marketplace,
	hub *ws.Hub,
) {
	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.cfg.Mode, a.logger),
		Items:    handler.NewItemHandler(market, deps.Issuer, a.logger),
		Offers:   handler.NewOfferHandler(market, a.logger),
		Escrows:  handler.NewEscrowHandler(market, a.logger),
		Accounts: handler.NewAccountHandler(market, a.logger),
		Events:   handler.NewEventHandler(market, a.logger),
	}
	if deps.BlobWriter != nil && deps.BlobReader != nil {
		handlers.Blobs = handler.NewBlobHandler(deps.BlobWriter, deps.BlobReader, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// runArchiver drains the durable event stream into object storage on the
// configured interval, carrying the stream cursor between runs.
func (a *App) runArchiver(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Archive.Interval.Duration

	a.logger.InfoContext(ctx, "event archiver started",
		slog.Duration("interval", interval),
	)

	cursor := "0"
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, next, err := deps.Archiver.Archive(ctx, cursor, time.Now().UTC())
			if err != nil {
				a.logger.ErrorContext(ctx, "event archive run failed",
					slog.String("cursor", cursor),
					slog.String("error", err.Error()),
				)
				continue
			}
			cursor = next
			if count > 0 {
				a.logger.InfoContext(ctx, "archived events",
					slog.Int64("events", count),
					slog.String("cursor", cursor),
				)
			}
		}
	}
}
