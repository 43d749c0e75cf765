package main

import (
	"fmt"
	"os"
	"syscall"
	_ "time/tzdata"

	"github.com/kinogutschein/internal/app"
	"github.com/kinogutschein/internal/config"
	"github.com/kinogutschein/internal/logger"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.App.Mode, cfg.Log.ToLoggerOptions())

	err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Color:   colorEnabled(),
	}, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Fehler:", err.Error())
	}
	logger.Sync()
	os.Exit(app.ExitCode(err))
}

// colorEnabled 仅在终端输出且未设置 NO_COLOR 时着色
func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
