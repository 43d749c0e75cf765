package provider

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/kinogutschein/internal/cache"
	"github.com/kinogutschein/internal/config"
	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/repository"
	"github.com/kinogutschein/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupContainerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:container_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func testContainerConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Timezone: "Europe/Berlin"},
		Storage: config.StorageConfig{
			LocationBackend: constants.LocationBackendDatabase,
			LocationKey:     "kinogutschein-locations",
		},
		Voucher: config.VoucherConfig{DefaultUsageLimit: 1, ConfirmationTTLSeconds: 60},
	}
}

func TestNewContainerDatabaseBackend(t *testing.T) {
	db := setupContainerTestDB(t)
	clock := service.FixedClock(time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC))

	c, err := NewContainer(context.Background(), testContainerConfig(), db, &clock)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	defer c.Close()

	if _, ok := c.LocationStore.(*repository.GormSettingRepository); !ok {
		t.Fatalf("expected database location store, got %T", c.LocationStore)
	}
	if got := c.Clock.Today().String(); got != "2025-08-01" {
		t.Fatalf("unexpected clock date: %s", got)
	}
	if c.VoucherService == nil || c.LocationService == nil || c.ExportService == nil || c.SeedService == nil || c.EditorStateStore == nil {
		t.Fatalf("expected all services to be initialized")
	}
}

func TestNewContainerRejectsMissingConfig(t *testing.T) {
	if _, err := NewContainer(context.Background(), nil, setupContainerTestDB(t), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestNewContainerRedisBackend(t *testing.T) {
	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	if err != nil {
		t.Fatalf("parse miniredis port failed: %v", err)
	}
	cfg := testContainerConfig()
	cfg.Storage.LocationBackend = constants.LocationBackendRedis
	cfg.Redis = config.RedisConfig{Enabled: true, Host: server.Host(), Port: port, Prefix: "kg_test"}

	c, err := NewContainer(context.Background(), cfg, setupContainerTestDB(t), nil)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	if _, ok := c.LocationStore.(*cache.Store); !ok {
		t.Fatalf("expected redis location store, got %T", c.LocationStore)
	}

	picker, err := c.LocationService.Mount(context.Background())
	if err != nil {
		t.Fatalf("mount location picker failed: %v", err)
	}
	if _, err := picker.Add(context.Background(), "Astor Filmlounge", ""); err != nil {
		t.Fatalf("add location failed: %v", err)
	}
	if !server.Exists("kg_test:kinogutschein-locations") {
		t.Fatalf("expected location list in redis")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close container failed: %v", err)
	}
	if cache.Enabled() {
		t.Fatalf("expected redis client to be closed")
	}
}

func TestNewContainerRedisFallback(t *testing.T) {
	cfg := testContainerConfig()
	cfg.Storage.LocationBackend = constants.LocationBackendRedis
	cfg.Redis = config.RedisConfig{Enabled: false}

	c, err := NewContainer(context.Background(), cfg, setupContainerTestDB(t), nil)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	defer c.Close()
	if _, ok := c.LocationStore.(*repository.GormSettingRepository); !ok {
		t.Fatalf("expected database fallback, got %T", c.LocationStore)
	}
}

func TestLoadLocationFallback(t *testing.T) {
	if LoadLocation("") != time.Local {
		t.Fatalf("expected local timezone for empty name")
	}
	if LoadLocation("Mars/Olympus") != time.Local {
		t.Fatalf("expected local timezone for unknown name")
	}
	if got := LoadLocation("Europe/Berlin").String(); got != "Europe/Berlin" {
		t.Fatalf("unexpected timezone: %s", got)
	}
}
