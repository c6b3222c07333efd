package repository

import (
	"context"

	"gorm.io/gorm"

	"giveaway-rewards/backend/internal/model"
	pkgerrors "giveaway-rewards/backend/pkg/errors"
)

// SettingsRepository 奖励规则（单行表）数据访问接口
type SettingsRepository interface {
	Get(ctx context.Context) (*model.RewardSettings, error)
	Create(ctx context.Context, s *model.RewardSettings) error
	// Update 基于 version 乐观锁更新，冲突时返回 ErrOptimisticLock
	Update(ctx context.Context, s *model.RewardSettings) error
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo 创建 SettingsRepository 实例
func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context) (*model.RewardSettings, error) {
	var s model.RewardSettings
	err := r.db.WithContext(ctx).
		Where("singleton = ?", true).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Create(ctx context.Context, s *model.RewardSettings) error {
	s.Singleton = true
	if s.Version == 0 {
		s.Version = 1
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *settingsRepo) Update(ctx context.Context, s *model.RewardSettings) error {
	oldVersion := s.Version
	result := r.db.WithContext(ctx).
		Model(&model.RewardSettings{}).
		Where("singleton = ? AND version = ?", true, oldVersion).
		Updates(map[string]interface{}{
			"leaderboard_cap":          s.LeaderboardCap,
			"daily_points_cap":         s.DailyPointsCap,
			"duplicate_window_seconds": s.DuplicateWindowSeconds,
			"stable_guest_shuffle":     s.StableGuestShuffle,
			"updated_by":               s.UpdatedBy,
			"version":                  oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version = oldVersion + 1
	return nil
}
