package app

import (
	"io"
	"os"

	"github.com/kinogutschein/internal/config"
	"github.com/kinogutschein/internal/logger"
	"github.com/kinogutschein/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options 命令行运行选项
type Options struct {
	Config  *config.Config
	Logger  *zap.SugaredLogger
	Signals []os.Signal

	// DB 为空时按配置打开数据库
	DB *gorm.DB
	// Clock 为空时使用配置时区的系统时间
	Clock *service.Clock

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Color 输出 ANSI 状态色
	Color bool
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}
