package config

import (
	"strings"
	"testing"
	"time"
)

func validServeConfig() Config {
	cfg := Defaults()
	cfg.Marketplace.ListingSecret = "secret"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("defaults with a listing secret pass", func(t *testing.T) {
		cfg := validServeConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("valid config rejected: %v", err)
		}
	})

	t.Run("serve mode requires a listing secret", func(t *testing.T) {
		cfg := Defaults()
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "listing_secret") {
			t.Errorf("want listing_secret error, got %v", err)
		}
	})

	t.Run("memory mode needs no secret or backends", func(t *testing.T) {
		cfg := Defaults()
		cfg.Mode = "memory"
		cfg.Postgres.Host = ""
		cfg.Redis.Addr = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("memory mode rejected: %v", err)
		}
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		cfg := validServeConfig()
		cfg.Mode = "turbo"
		if err := cfg.Validate(); err == nil {
			t.Error("unknown mode accepted")
		}
	})

	t.Run("rate limit needs a positive window", func(t *testing.T) {
		cfg := validServeConfig()
		cfg.Server.RateLimit = 10
		cfg.Server.RateWindow = duration{}
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "rate_window") {
			t.Errorf("want rate_window error, got %v", err)
		}
	})

	t.Run("archive requires s3", func(t *testing.T) {
		cfg := validServeConfig()
		cfg.Archive.Enabled = true
		cfg.S3.Enabled = false
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "archive") {
			t.Errorf("want archive error, got %v", err)
		}
	})

	t.Run("pool bounds checked", func(t *testing.T) {
		cfg := validServeConfig()
		cfg.Postgres.PoolMinConns = 20
		cfg.Postgres.PoolMaxConns = 10
		if err := cfg.Validate(); err == nil {
			t.Error("min > max pool conns accepted")
		}
	})

	t.Run("every problem is reported at once", func(t *testing.T) {
		cfg := Defaults()
		cfg.Mode = "turbo"
		cfg.Server.Port = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("invalid config accepted")
		}
		for _, want := range []string{"mode", "port"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error missing %q: %v", want, err)
			}
		}
	})
}

func TestDurationText(t *testing.T) {
	var d duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("duration = %s, want 90s", d.Duration)
	}

	out, err := d.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "1m30s" {
		t.Errorf("text = %s, want 1m30s", out)
	}

	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("garbage duration accepted")
	}
}
