package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies THRIFTD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known THRIFTD_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Marketplace ──
	setStr(&cfg.Marketplace.ListingSecret, "THRIFTD_MARKETPLACE_LISTING_SECRET")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "THRIFTD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "THRIFTD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "THRIFTD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "THRIFTD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "THRIFTD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "THRIFTD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "THRIFTD_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "THRIFTD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "THRIFTD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "THRIFTD_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "THRIFTD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "THRIFTD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "THRIFTD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "THRIFTD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "THRIFTD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "THRIFTD_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "THRIFTD_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "THRIFTD_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "THRIFTD_S3_REGION")
	setStr(&cfg.S3.Bucket, "THRIFTD_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "THRIFTD_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "THRIFTD_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "THRIFTD_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "THRIFTD_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "THRIFTD_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "THRIFTD_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "THRIFTD_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "THRIFTD_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "THRIFTD_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "THRIFTD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "THRIFTD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "THRIFTD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "THRIFTD_NOTIFY_EVENTS")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "THRIFTD_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "THRIFTD_ARCHIVE_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.Mode, "THRIFTD_MODE")
	setStr(&cfg.LogLevel, "THRIFTD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
