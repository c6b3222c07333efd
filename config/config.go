package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Rewards  RewardsConfig  `mapstructure:"rewards"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	CORS         CORSConfig    `mapstructure:"cors"`
	RateLimit    RateLimitRule `mapstructure:"award_rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitRule 单个接口的滑动窗口限流规则
type RateLimitRule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DatabaseConfig 数据库配置
// Driver 为 postgres（默认）或 sqlite（本地开发）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置，Addr 为空时不启用
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 校验配置（仅校验，不负责签发登录凭证）
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// RewardsConfig 排行榜与积分规则的默认值
// reward_settings 表中存在记录时以数据库为准
type RewardsConfig struct {
	LeaderboardCap         int  `mapstructure:"leaderboard_cap"`
	DailyPointsCap         int  `mapstructure:"daily_points_cap"`
	DuplicateWindowSeconds int  `mapstructure:"duplicate_window_seconds"`
	StableGuestShuffle     bool `mapstructure:"stable_guest_shuffle"`
	// ShuffleSecret 稳定洗牌的 HMAC 密钥，为空时使用 auth.jwt_secret
	ShuffleSecret string         `mapstructure:"shuffle_secret"`
	Timezone      string         `mapstructure:"timezone"`
	Actions       map[string]int `mapstructure:"actions"`
}

// Location 解析积分日界所在时区，无效时回退 UTC
func (c *RewardsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// 本地开发时允许 .env 注入环境变量，文件不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.award_rate_limit.limit", 30)
	v.SetDefault("server.award_rate_limit.window", "1m")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "giveaway_rewards")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.sqlite_path", "rewards.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "giveaway-rewards")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("rewards.leaderboard_cap", 60)
	v.SetDefault("rewards.daily_points_cap", 100)
	v.SetDefault("rewards.duplicate_window_seconds", 0)
	v.SetDefault("rewards.stable_guest_shuffle", false)
	v.SetDefault("rewards.shuffle_secret", "")
	v.SetDefault("rewards.timezone", "UTC")
	v.SetDefault("rewards.actions", map[string]int{
		"share_native":   10,
		"share_copy":     5,
		"daily_visit":    2,
		"giveaway_entry": 20,
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("REWARDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if cfg.Rewards.ShuffleSecret == "" {
		cfg.Rewards.ShuffleSecret = cfg.Auth.JWTSecret
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres 或 sqlite")
	}
	if c.Rewards.ShuffleSecret != "" && len(c.Rewards.ShuffleSecret) < 16 {
		return fmt.Errorf("配置校验失败: rewards.shuffle_secret 长度不能少于 16 字符")
	}
	if c.Rewards.LeaderboardCap <= 0 {
		return fmt.Errorf("配置校验失败: rewards.leaderboard_cap 必须大于 0")
	}
	if c.Rewards.DailyPointsCap <= 0 {
		return fmt.Errorf("配置校验失败: rewards.daily_points_cap 必须大于 0")
	}
	if c.Rewards.DuplicateWindowSeconds < 0 {
		return fmt.Errorf("配置校验失败: rewards.duplicate_window_seconds 不能为负数")
	}
	for action, points := range c.Rewards.Actions {
		if points < 0 {
			return fmt.Errorf("配置校验失败: rewards.actions.%s 积分不能为负数", action)
		}
	}
	if _, err := time.LoadLocation(c.Rewards.Timezone); err != nil {
		return fmt.Errorf("配置校验失败: rewards.timezone 无效: %w", err)
	}
	return nil
}
