package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/model"
)

func setupTestSettingsService() (SettingsService, *mockSettingsRepo) {
	repo, _, settingsRepo := newTestRepository()
	return NewSettingsService(testRewardsConfig(), repo, zap.NewNop()), settingsRepo
}

func intPtr(v int) *int { return &v }

// ── Get 测试 ──

func TestSettingsService_Get_FallsBackToConfig(t *testing.T) {
	svc, _ := setupTestSettingsService()

	result, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if result.LeaderboardCap != 60 || result.DailyPointsCap != 100 {
		t.Errorf("期望配置默认值 60/100，实际 %d/%d", result.LeaderboardCap, result.DailyPointsCap)
	}
	if result.Actions["share_native"] != 10 {
		t.Errorf("期望 share_native=10，实际 %d", result.Actions["share_native"])
	}
}

func TestSettingsService_Get_PrefersDatabase(t *testing.T) {
	svc, settingsRepo := setupTestSettingsService()
	settingsRepo.row = &model.RewardSettings{Singleton: true, LeaderboardCap: 25, DailyPointsCap: 300}

	result, _ := svc.Get(context.Background())
	if result.LeaderboardCap != 25 || result.DailyPointsCap != 300 {
		t.Errorf("期望数据库值 25/300，实际 %d/%d", result.LeaderboardCap, result.DailyPointsCap)
	}
}

// ── Update 测试 ──

func TestSettingsService_Update_CreatesRowWhenMissing(t *testing.T) {
	svc, settingsRepo := setupTestSettingsService()

	result, err := svc.Update(context.Background(), &dto.UpdateRewardSettingsRequest{
		DailyPointsCap: intPtr(200),
	}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.DailyPointsCap != 200 {
		t.Errorf("期望 daily_points_cap=200，实际 %d", result.DailyPointsCap)
	}
	// 未修改的字段保持配置默认值
	if result.LeaderboardCap != 60 {
		t.Errorf("期望 leaderboard_cap=60（未修改），实际 %d", result.LeaderboardCap)
	}
	if settingsRepo.row == nil {
		t.Fatal("应写入数据库行")
	}
}

func TestSettingsService_Update_PartialUpdate(t *testing.T) {
	svc, settingsRepo := setupTestSettingsService()
	settingsRepo.row = &model.RewardSettings{Singleton: true, LeaderboardCap: 60, DailyPointsCap: 100}
	settingsRepo.row.Version = 1

	shuffle := true
	result, err := svc.Update(context.Background(), &dto.UpdateRewardSettingsRequest{
		StableGuestShuffle: &shuffle,
	}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if !result.StableGuestShuffle {
		t.Error("期望 stable_guest_shuffle=true")
	}
	if result.Version != 2 {
		t.Errorf("期望 version=2，实际 %d", result.Version)
	}
}

func TestSettingsService_Update_Invalid(t *testing.T) {
	svc, _ := setupTestSettingsService()

	_, err := svc.Update(context.Background(), &dto.UpdateRewardSettingsRequest{
		LeaderboardCap: intPtr(0),
	}, "admin-001")
	if !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("期望 ErrInvalidSettings，实际 %v", err)
	}
}

func TestSettingsService_Update_Conflict(t *testing.T) {
	svc, settingsRepo := setupTestSettingsService()
	settingsRepo.row = &model.RewardSettings{Singleton: true, LeaderboardCap: 60, DailyPointsCap: 100}
	settingsRepo.row.Version = 1

	// 模拟读取后被他人修改：Get 返回旧版本，存储中已是新版本
	stale := &staleSettingsRepo{mockSettingsRepo: settingsRepo}
	repo, _, _ := newTestRepository()
	repo.Settings = stale
	svc = NewSettingsService(testRewardsConfig(), repo, zap.NewNop())

	_, err := svc.Update(context.Background(), &dto.UpdateRewardSettingsRequest{DailyPointsCap: intPtr(150)}, "admin-001")
	if !errors.Is(err, ErrSettingsConflict) {
		t.Errorf("期望 ErrSettingsConflict，实际 %v", err)
	}
}

type staleSettingsRepo struct {
	*mockSettingsRepo
}

func (s *staleSettingsRepo) Get(ctx context.Context) (*model.RewardSettings, error) {
	row, err := s.mockSettingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.mockSettingsRepo.row.Version++
	return row, nil
}

// ── Current 测试 ──

func TestSettingsService_Current_DegradesOnError(t *testing.T) {
	svc, settingsRepo := setupTestSettingsService()
	settingsRepo.getErr = errors.New("db down")

	rules := svc.Current(context.Background())
	if rules.LeaderboardCap != 60 || rules.DailyPointsCap != 100 {
		t.Errorf("读取失败应回退配置默认值，实际 %+v", rules)
	}
	if rules.Location != time.UTC {
		t.Errorf("期望 UTC，实际 %v", rules.Location)
	}
}

func TestSettingsService_Current_DuplicateWindow(t *testing.T) {
	svc, settingsRepo := setupTestSettingsService()
	settingsRepo.row = &model.RewardSettings{Singleton: true, LeaderboardCap: 60, DailyPointsCap: 100, DuplicateWindowSeconds: 45}

	if rules := svc.Current(context.Background()); rules.DuplicateWindow != 45*time.Second {
		t.Errorf("期望 45s，实际 %v", rules.DuplicateWindow)
	}
}

func TestSettingsService_Current_MissingRowUsesConfiguredValues(t *testing.T) {
	repo, _, _ := newTestRepository()
	cfg := testRewardsConfig()
	cfg.LeaderboardCap = 25
	cfg.DailyPointsCap = 300
	cfg.DuplicateWindowSeconds = 90
	svc := NewSettingsService(cfg, repo, zap.NewNop())

	rules := svc.Current(context.Background())
	if rules.LeaderboardCap != 25 || rules.DailyPointsCap != 300 || rules.DuplicateWindow != 90*time.Second {
		t.Errorf("无设置行时应使用配置值 25/300/90s，实际 %+v", rules)
	}

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if got.LeaderboardCap != 25 || got.DailyPointsCap != 300 {
		t.Errorf("Get 期望 25/300，实际 %d/%d", got.LeaderboardCap, got.DailyPointsCap)
	}
}
