package config

import (
	"fmt"
	"strings"

	"github.com/kinogutschein/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Voucher  VoucherConfig  `mapstructure:"voucher"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig 应用运行配置
type AppConfig struct {
	Mode     string `mapstructure:"mode"`     // debug / release
	Timezone string `mapstructure:"timezone"` // 计算“今天”使用的时区
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// StorageConfig 本地键值存储配置
type StorageConfig struct {
	LocationBackend string `mapstructure:"location_backend"` // database / redis
	LocationKey     string `mapstructure:"location_key"`
}

// VoucherConfig 兑换券行为配置
type VoucherConfig struct {
	DefaultUsageLimit      int  `mapstructure:"default_usage_limit"`
	SeedExamples           bool `mapstructure:"seed_examples"`
	ConfirmationTTLSeconds int  `mapstructure:"confirmation_ttl_seconds"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// SetDefaults 写入默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.timezone", "Europe/Berlin")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "kinogutschein.log")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/kinogutschein.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "kg")
	v.SetDefault("storage.location_backend", "database")
	v.SetDefault("storage.location_key", "kinogutschein-locations")
	v.SetDefault("voucher.default_usage_limit", 1)
	v.SetDefault("voucher.seed_examples", true)
	v.SetDefault("voucher.confirmation_ttl_seconds", 300)
	v.SetDefault("export.dir", "./exports")
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logger.Debugw("config_dotenv_loaded")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // 从当前目录查找
	v.AddConfigPath("../")   // 如果从 cmd/kinogutschein 运行
	v.AddConfigPath("./etc") // etc 文件夹

	SetDefaults(v)

	// 环境变量支持（例如 database.dsn -> KINOGUTSCHEIN_DATABASE_DSN）
	v.SetEnvPrefix("kinogutschein")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Debugw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Debugw("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := decode(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// Defaults 返回仅包含默认值的配置（测试与种子工具使用）
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Errorf("默认配置解析失败: %w", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Storage.LocationBackend = strings.ToLower(strings.TrimSpace(c.Storage.LocationBackend))
	if c.Storage.LocationBackend == "" {
		c.Storage.LocationBackend = "database"
	}
	if strings.TrimSpace(c.Storage.LocationKey) == "" {
		c.Storage.LocationKey = "kinogutschein-locations"
	}
	if c.Voucher.DefaultUsageLimit < 1 {
		c.Voucher.DefaultUsageLimit = 1
	}
	if c.Voucher.ConfirmationTTLSeconds <= 0 {
		c.Voucher.ConfirmationTTLSeconds = 300
	}
}
