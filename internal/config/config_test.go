package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got: %s", cfg.Database.Driver)
	}
	if cfg.Storage.LocationKey != "kinogutschein-locations" {
		t.Fatalf("unexpected location key: %s", cfg.Storage.LocationKey)
	}
	if cfg.Storage.LocationBackend != "database" {
		t.Fatalf("unexpected location backend: %s", cfg.Storage.LocationBackend)
	}
	if cfg.Voucher.DefaultUsageLimit != 1 {
		t.Fatalf("unexpected default usage limit: %d", cfg.Voucher.DefaultUsageLimit)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("redis should be disabled by default")
	}
}

func TestDecodeNormalizesInvalidValues(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("storage.location_backend", "  REDIS ")
	v.Set("storage.location_key", " ")
	v.Set("voucher.default_usage_limit", 0)
	v.Set("voucher.confirmation_ttl_seconds", -5)

	cfg, err := decode(v)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Storage.LocationBackend != "redis" {
		t.Fatalf("expected normalized backend redis, got: %q", cfg.Storage.LocationBackend)
	}
	if cfg.Storage.LocationKey != "kinogutschein-locations" {
		t.Fatalf("expected fallback location key, got: %q", cfg.Storage.LocationKey)
	}
	if cfg.Voucher.DefaultUsageLimit != 1 {
		t.Fatalf("expected usage limit fallback 1, got: %d", cfg.Voucher.DefaultUsageLimit)
	}
	if cfg.Voucher.ConfirmationTTLSeconds != 300 {
		t.Fatalf("expected ttl fallback 300, got: %d", cfg.Voucher.ConfirmationTTLSeconds)
	}
}

func TestLogConfigToLoggerOptions(t *testing.T) {
	opts := LogConfig{Dir: "/tmp/kg", Filename: "kg.log", MaxSizeMB: 3, Compress: true}.ToLoggerOptions()
	if opts.Dir != "/tmp/kg" || opts.Filename != "kg.log" || opts.MaxSizeMB != 3 || !opts.Compress {
		t.Fatalf("unexpected logger options: %+v", opts)
	}
}
