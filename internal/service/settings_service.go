package service

import (
	"context"
	"errors"
	"maps"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"giveaway-rewards/backend/config"
	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/model"
	"giveaway-rewards/backend/internal/repository"
	pkgerrors "giveaway-rewards/backend/pkg/errors"
)

// ── 奖励规则模块业务错误 ──

var (
	ErrInvalidSettings  = errors.New("奖励规则取值超出范围")
	ErrSettingsConflict = errors.New("奖励规则已被其他管理员修改，请刷新后重试")
)

// RewardRules 当前生效的规则：数据库行优先，缺失时取配置文件
type RewardRules struct {
	LeaderboardCap     int
	DailyPointsCap     int
	DuplicateWindow    time.Duration
	StableGuestShuffle bool
	Actions            map[string]int
	Location           *time.Location
}

// SettingsService 奖励规则业务接口
type SettingsService interface {
	Get(ctx context.Context) (*dto.RewardSettingsResponse, error)
	Update(ctx context.Context, req *dto.UpdateRewardSettingsRequest, callerID string) (*dto.RewardSettingsResponse, error)
	// Current 供其他模块读取规则，读取失败时回退配置文件，不返回错误
	Current(ctx context.Context) RewardRules
}

type settingsService struct {
	defaults *config.RewardsConfig
	repo     *repository.Repository
	logger   *zap.Logger
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(defaults *config.RewardsConfig, repo *repository.Repository, logger *zap.Logger) SettingsService {
	return &settingsService{defaults: defaults, repo: repo, logger: logger}
}

func (s *settingsService) fromConfig() *model.RewardSettings {
	return &model.RewardSettings{
		Singleton:              true,
		LeaderboardCap:         s.defaults.LeaderboardCap,
		DailyPointsCap:         s.defaults.DailyPointsCap,
		DuplicateWindowSeconds: s.defaults.DuplicateWindowSeconds,
		StableGuestShuffle:     s.defaults.StableGuestShuffle,
	}
}

// load 读取数据库行；不存在时返回配置默认值与 found=false
func (s *settingsService) load(ctx context.Context) (*model.RewardSettings, bool, error) {
	row, err := s.repo.Settings.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fromConfig(), false, nil
		}
		return nil, false, err
	}
	return row, true, nil
}

func (s *settingsService) toResponse(row *model.RewardSettings) *dto.RewardSettingsResponse {
	return &dto.RewardSettingsResponse{
		LeaderboardCap:         row.LeaderboardCap,
		DailyPointsCap:         row.DailyPointsCap,
		DuplicateWindowSeconds: row.DuplicateWindowSeconds,
		StableGuestShuffle:     row.StableGuestShuffle,
		Actions:                maps.Clone(s.defaults.Actions),
		Timezone:               s.defaults.Location().String(),
		Version:                row.Version,
		UpdatedAt:              formatTime(row.UpdatedAt),
	}
}

// ────────────────────── Get ──────────────────────

func (s *settingsService) Get(ctx context.Context) (*dto.RewardSettingsResponse, error) {
	row, _, err := s.load(ctx)
	if err != nil {
		s.logger.Error("查询奖励规则失败", zap.Error(err))
		return nil, err
	}
	return s.toResponse(row), nil
}

// ────────────────────── Update ──────────────────────

func (s *settingsService) Update(ctx context.Context, req *dto.UpdateRewardSettingsRequest, callerID string) (*dto.RewardSettingsResponse, error) {
	row, found, err := s.load(ctx)
	if err != nil {
		s.logger.Error("查询奖励规则失败", zap.Error(err))
		return nil, err
	}

	if req.LeaderboardCap != nil {
		row.LeaderboardCap = *req.LeaderboardCap
	}
	if req.DailyPointsCap != nil {
		row.DailyPointsCap = *req.DailyPointsCap
	}
	if req.DuplicateWindowSeconds != nil {
		row.DuplicateWindowSeconds = *req.DuplicateWindowSeconds
	}
	if req.StableGuestShuffle != nil {
		row.StableGuestShuffle = *req.StableGuestShuffle
	}

	if err := validateSettings(row); err != nil {
		return nil, err
	}

	if callerID != "" {
		row.UpdatedBy = &callerID
	}

	if found {
		err = s.repo.Settings.Update(ctx, row)
	} else {
		row.CreatedBy = row.UpdatedBy
		err = s.repo.Settings.Create(ctx, row)
	}
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrSettingsConflict
		}
		s.logger.Error("更新奖励规则失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("奖励规则已更新",
		zap.String("operator", callerID),
		zap.Int("leaderboard_cap", row.LeaderboardCap),
		zap.Int("daily_points_cap", row.DailyPointsCap),
		zap.Int("duplicate_window_seconds", row.DuplicateWindowSeconds),
		zap.Bool("stable_guest_shuffle", row.StableGuestShuffle),
	)

	return s.toResponse(row), nil
}

func validateSettings(row *model.RewardSettings) error {
	switch {
	case row.LeaderboardCap < 1 || row.LeaderboardCap > 1000:
		return ErrInvalidSettings
	case row.DailyPointsCap < 1 || row.DailyPointsCap > 100000:
		return ErrInvalidSettings
	case row.DuplicateWindowSeconds < 0 || row.DuplicateWindowSeconds > 86400:
		return ErrInvalidSettings
	}
	return nil
}

// ────────────────────── Current ──────────────────────

func (s *settingsService) Current(ctx context.Context) RewardRules {
	row, _, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("读取奖励规则失败，使用配置文件默认值", zap.Error(err))
		row = s.fromConfig()
	}
	return RewardRules{
		LeaderboardCap:     row.LeaderboardCap,
		DailyPointsCap:     row.DailyPointsCap,
		DuplicateWindow:    time.Duration(row.DuplicateWindowSeconds) * time.Second,
		StableGuestShuffle: row.StableGuestShuffle,
		Actions:            s.defaults.Actions,
		Location:           s.defaults.Location(),
	}
}
