package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "test-secret-key-for-config-2026"
rewards:
  leaderboard_cap: 40
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Rewards.LeaderboardCap != 40 {
		t.Errorf("期望 LeaderboardCap=40，实际=%d", cfg.Rewards.LeaderboardCap)
	}
	if cfg.Rewards.DailyPointsCap != 100 {
		t.Errorf("期望默认 DailyPointsCap=100，实际=%d", cfg.Rewards.DailyPointsCap)
	}
	if cfg.Server.RateLimit.Window != time.Minute {
		t.Errorf("期望限流窗口=1m，实际=%s", cfg.Server.RateLimit.Window)
	}
	if cfg.Rewards.Actions["share_copy"] != 5 {
		t.Errorf("期望 share_copy=5，实际=%d", cfg.Rewards.Actions["share_copy"])
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("期望默认 driver=postgres，实际=%s", cfg.Database.Driver)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "test-secret-key-for-config-2026"
`)
	t.Setenv("REWARDS_REWARDS_DAILY_POINTS_CAP", "250")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Rewards.DailyPointsCap != 250 {
		t.Errorf("期望环境变量覆盖 DailyPointsCap=250，实际=%d", cfg.Rewards.DailyPointsCap)
	}
}

func TestLoad_ShuffleSecretFallsBackToJWTSecret(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: "test-secret-key-for-config-2026"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Rewards.ShuffleSecret != "test-secret-key-for-config-2026" {
		t.Errorf("未配置 shuffle_secret 时应复用 jwt_secret，实际=%q", cfg.Rewards.ShuffleSecret)
	}

	path = writeConfigFile(t, `
auth:
  jwt_secret: "test-secret-key-for-config-2026"
rewards:
  shuffle_secret: "short"
`)
	if _, err := Load(path); err == nil {
		t.Error("shuffle_secret 过短时应校验失败")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 8080\n")

	if _, err := Load(path); err == nil {
		t.Fatal("期望缺少 jwt_secret 时校验失败")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "postgres"},
			Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			Rewards: RewardsConfig{
				LeaderboardCap: 60,
				DailyPointsCap: 100,
				Timezone:       "UTC",
				Actions:        map[string]int{"share_native": 10},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"合法配置", func(c *Config) {}, false},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, true},
		{"未知驱动", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"排行榜上限为0", func(c *Config) { c.Rewards.LeaderboardCap = 0 }, true},
		{"每日积分上限为负", func(c *Config) { c.Rewards.DailyPointsCap = -1 }, true},
		{"去重窗口为负", func(c *Config) { c.Rewards.DuplicateWindowSeconds = -5 }, true},
		{"动作积分为负", func(c *Config) { c.Rewards.Actions["bad"] = -1 }, true},
		{"时区无效", func(c *Config) { c.Rewards.Timezone = "Mars/Olympus" }, true},
		{"sqlite 驱动", func(c *Config) { c.Database.Driver = "sqlite" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestRewardsConfig_Location(t *testing.T) {
	c := &RewardsConfig{Timezone: "Asia/Shanghai"}
	if c.Location().String() != "Asia/Shanghai" {
		t.Errorf("期望 Asia/Shanghai，实际=%s", c.Location())
	}

	c.Timezone = ""
	if c.Location() != time.UTC {
		t.Errorf("空时区应回退 UTC")
	}
}
