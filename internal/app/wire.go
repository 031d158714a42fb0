package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	s3blob "github.com/rijulg06/thriftchain/internal/blob/s3"
	"github.com/rijulg06/thriftchain/internal/cache/redis"
	"github.com/rijulg06/thriftchain/internal/capability"
	"github.com/rijulg06/thriftchain/internal/config"
	"github.com/rijulg06/thriftchain/internal/domain"
	"github.com/rijulg06/thriftchain/internal/marketplace"
	"github.com/rijulg06/thriftchain/internal/notify"
	"github.com/rijulg06/thriftchain/internal/store/memory"
	"github.com/rijulg06/thriftchain/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Storage
	PG       *postgres.Client
	Tx       domain.Transactor
	Items    domain.ItemStore
	Offers   domain.OfferStore
	Escrows  domain.EscrowStore
	Ledger   domain.Ledger
	Events   domain.EventStore
	Counters domain.CounterStore

	// Caches and messaging
	Bus         domain.EventBus
	ItemCache   domain.ItemCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   *s3blob.Archiver

	// Capability and notifications
	Issuer   *capability.Issuer
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Notifications (available in every mode) ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Capability issuer ---
	secret := cfg.Marketplace.ListingSecret
	if secret == "" && cfg.Mode == "memory" {
		// Memory mode is for local development; generate an ephemeral
		// listing secret and tell the operator what it is.
		secret = uuid.New().String()
		logger.Warn("memory mode: generated ephemeral listing secret",
			slog.String("listing_secret", secret),
		)
	}
	deps.Issuer = capability.NewIssuer(secret)

	// --- Memory mode: one in-process store backs everything ---
	if cfg.Mode == "memory" {
		mem := memory.New()
		deps.Tx = mem
		deps.Items = mem.Items()
		deps.Offers = mem.Offers()
		deps.Escrows = mem.Escrows()
		deps.Ledger = mem.Ledger()
		deps.Events = mem.Events()
		deps.Counters = mem.Counters()
		return deps, cleanup, nil
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations && cfg.Mode != "migrate" {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PG = pgClient
	deps.Tx = pgClient
	deps.Items = postgres.NewItemStore(pool)
	deps.Offers = postgres.NewOfferStore(pool)
	deps.Escrows = postgres.NewEscrowStore(pool)
	deps.Ledger = postgres.NewLedgerStore(pool)
	deps.Events = postgres.NewEventStore(pool)
	deps.Counters = postgres.NewCounterStore(pool)

	// Migrate mode needs nothing beyond the database.
	if cfg.Mode == "migrate" {
		return deps, cleanup, nil
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	bus := redis.NewEventBus(redisClient)
	deps.Bus = bus
	deps.ItemCache = redis.NewItemCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- S3 blob storage (listing images and event archives) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		writer := s3blob.NewWriter(s3Client)
		deps.BlobWriter = writer
		deps.BlobReader = s3blob.NewReader(s3Client)

		if cfg.Archive.Enabled {
			deps.Archiver = s3blob.NewArchiver(bus, writer, marketplace.EventStream)
		}
	}

	return deps, cleanup, nil
}
