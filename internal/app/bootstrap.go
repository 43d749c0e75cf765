package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/kinogutschein/internal/config"
	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/provider"

	"gorm.io/gorm"
)

// OpenDatabase 按配置打开数据库并迁移表结构
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	db, err := models.OpenDB(models.DBConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Pool: models.DBPoolConfig{
			MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
		},
		Debug: cfg.App.Mode == "debug",
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// Bootstrap 构建依赖容器，首次运行时写入示例兑换券
func Bootstrap(ctx context.Context, opts Options) (*provider.Container, error) {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return nil, errors.New("config is nil")
	}
	db := opts.DB
	if db == nil {
		opened, err := OpenDatabase(opts.Config)
		if err != nil {
			return nil, err
		}
		db = opened
		opts.Logger.Debugw("app_database_opened", "driver", opts.Config.Database.Driver)
	} else if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	container, err := provider.NewContainer(ctx, opts.Config, db, opts.Clock)
	if err != nil {
		return nil, err
	}
	if opts.DB == nil {
		container.OnClose(func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}

	if opts.Config.Voucher.SeedExamples {
		if _, err := container.SeedService.EnsureSeeded(ctx); err != nil {
			opts.Logger.Warnw("app_seed_examples_failed", "error", err)
		}
	}
	return container, nil
}
