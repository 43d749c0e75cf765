package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kinogutschein/internal/cache"
	"github.com/kinogutschein/internal/config"
	"github.com/kinogutschein/internal/constants"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/repository"
	"github.com/kinogutschein/internal/service"

	"gorm.io/gorm"
)

const redisPingTimeout = 2 * time.Second

// Container 依赖注入容器
type Container struct {
	Config *config.Config
	Clock  service.Clock

	// Repositories
	VoucherRepo   repository.VoucherRepository
	SettingRepo   repository.SettingRepository
	LocationStore repository.KeyValueStore

	// Services
	Confirmations    *service.Confirmations
	VoucherService   *service.VoucherService
	EditorStateStore *service.EditorStateStore
	LocationService  *service.LocationService
	ExportService    *service.ExportService
	SeedService      *service.SeedService

	closers []func() error
}

// NewContainer 初始化容器；db 为空时使用全局连接
func NewContainer(ctx context.Context, cfg *config.Config, db *gorm.DB, clock *service.Clock) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		db = models.DB
	}
	if db == nil {
		return nil, errors.New("database not initialized")
	}

	c := &Container{Config: cfg}
	if clock != nil {
		c.Clock = *clock
	} else {
		c.Clock = service.SystemClock(LoadLocation(cfg.App.Timezone))
	}

	// 1. 初始化 Repositories
	c.initRepositories(ctx, db)

	// 2. 初始化 Services
	c.initServices()

	return c, nil
}

// LoadLocation 解析时区，失败时回落到本地时区
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warnw("provider_load_timezone_failed", "timezone", name, "error", err)
		return time.Local
	}
	return loc
}

func (c *Container) initRepositories(ctx context.Context, db *gorm.DB) {
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.LocationStore = c.SettingRepo

	if c.Config.Storage.LocationBackend != constants.LocationBackendRedis {
		return
	}
	store, err := c.initRedisStore(ctx)
	if err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err, "fallback", constants.LocationBackendDatabase)
		return
	}
	c.LocationStore = store
}

func (c *Container) initRedisStore(ctx context.Context) (*cache.Store, error) {
	if err := cache.InitRedis(&c.Config.Redis); err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		_ = cache.Close()
		return nil, err
	}
	store, err := cache.NewStore()
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, cache.Close)
	return store, nil
}

func (c *Container) initServices() {
	ttl := time.Duration(c.Config.Voucher.ConfirmationTTLSeconds) * time.Second
	c.Confirmations = service.NewConfirmations(ttl, c.Clock)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.Confirmations, c.Clock, c.Config.Voucher.DefaultUsageLimit)
	c.EditorStateStore = service.NewEditorStateStore(c.SettingRepo)
	c.LocationService = service.NewLocationService(c.LocationStore, c.Config.Storage.LocationKey, c.Clock, c.Confirmations)
	c.ExportService = service.NewExportService(c.VoucherService)
	c.SeedService = service.NewSeedService(c.VoucherRepo, c.SettingRepo)
}

// OnClose 登记关闭时需要释放的资源
func (c *Container) OnClose(fn func() error) {
	if c == nil || fn == nil {
		return
	}
	c.closers = append(c.closers, fn)
}

// Close 释放外部连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, closer := range c.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
