package main

import (
	"context"
	"flag"
	_ "time/tzdata"

	"github.com/kinogutschein/internal/app"
	"github.com/kinogutschein/internal/config"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/repository"
	"github.com/kinogutschein/internal/service"
)

func main() {
	force := flag.Bool("force", false, "覆盖已存在的示例兑换券")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.App.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		stdLog.Fatalf("Failed to open database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	seeder := service.NewSeedService(repository.NewVoucherRepository(db), repository.NewSettingRepository(db))
	ctx := context.Background()
	if *force {
		written, err := seeder.Reseed(ctx)
		if err != nil {
			stdLog.Printf("Failed to reseed vouchers: %v", err)
			return
		}
		stdLog.Printf("Reseeded %d example vouchers", written)
		return
	}

	created, err := seeder.EnsureSeeded(ctx)
	if err != nil {
		stdLog.Printf("Failed to seed vouchers: %v", err)
		return
	}
	if created == 0 {
		stdLog.Printf("Example vouchers already present, use -force to overwrite")
		return
	}
	stdLog.Printf("Created %d example vouchers", created)
}
