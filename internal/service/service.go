package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"giveaway-rewards/backend/config"
	"giveaway-rewards/backend/internal/repository"
)

// DuplicateGuard 重复动作抑制所需的最小能力，由 pkg/redis.Client 实现
type DuplicateGuard interface {
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Viewer      ViewerService
	Leaderboard LeaderboardService
	Points      PointsService
	Participant ParticipantService
	Settings    SettingsService
	Export      ExportService
}

// NewService 创建 Service 聚合；dedup 为 nil 时不做重复动作抑制
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	dedup DuplicateGuard,
	logger *zap.Logger,
) *Service {
	settings := NewSettingsService(&cfg.Rewards, repo, logger)
	viewer := NewViewerService(repo, logger)
	return &Service{
		Viewer:      viewer,
		Leaderboard: NewLeaderboardService(repo, viewer, settings, []byte(cfg.Rewards.ShuffleSecret), logger),
		Points:      NewPointsService(repo, settings, dedup, logger),
		Participant: NewParticipantService(repo, logger),
		Settings:    settings,
		Export:      NewExportService(repo, logger),
	}
}

// now 当前时间，测试中替换以固定"今天"
var now = time.Now

const timeLayout = "2006-01-02T15:04:05Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
