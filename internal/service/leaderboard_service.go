package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/repository"
)

// LeaderboardService 排行榜业务接口
//
// 读取失败时返回空结果而不是错误，前端只会看到空榜。
type LeaderboardService interface {
	// Get sessionKey 仅在开启 stable_guest_shuffle 时用于派生洗牌种子
	Get(ctx context.Context, identity *policy.Identity, sessionKey string) *dto.LeaderboardResponse
	Referrals(ctx context.Context, identity *policy.Identity) *dto.ReferralsResponse
}

type leaderboardService struct {
	repo     *repository.Repository
	viewer   ViewerService
	settings SettingsService
	secret   []byte
	logger   *zap.Logger
}

// NewLeaderboardService 创建 LeaderboardService 实例
// shuffleSecret 为稳定洗牌的服务端密钥，为空时稳定洗牌不生效
func NewLeaderboardService(repo *repository.Repository, viewer ViewerService, settings SettingsService, shuffleSecret []byte, logger *zap.Logger) LeaderboardService {
	return &leaderboardService{repo: repo, viewer: viewer, settings: settings, secret: shuffleSecret, logger: logger}
}

func (s *leaderboardService) snapshot(ctx context.Context) (policy.ScoreSnapshot, error) {
	participants, err := s.repo.Participant.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return policy.SnapshotFromModels(participants), nil
}

// ────────────────────── Get ──────────────────────

func (s *leaderboardService) Get(ctx context.Context, identity *policy.Identity, sessionKey string) *dto.LeaderboardResponse {
	tier := s.viewer.Classify(ctx, identity)
	rules := s.settings.Current(ctx)

	resp := &dto.LeaderboardResponse{Tier: tier, Rows: []policy.ParticipantRow{}}

	snap, err := s.snapshot(ctx)
	if err != nil {
		s.logger.Error("读取排行榜快照失败，返回空结果", zap.String("tier", string(tier)), zap.Error(err))
		return resp
	}

	var shuffle policy.Shuffler
	if rules.StableGuestShuffle && sessionKey != "" && !tier.Privileged() {
		day := policy.StartOfDay(now(), rules.Location).Format("2006-01-02")
		shuffle = policy.SeededShuffler(s.secret, sessionKey+"|"+day)
	}

	result, err := policy.Project(snap, tier, rules.LeaderboardCap, shuffle)
	if errors.Is(err, policy.ErrUnknownTier) {
		s.logger.Warn("未知的访问者等级，已按 guest 投影", zap.String("tier", string(tier)))
	}

	resp.Rows = result.Rows
	resp.DisplayedCount = result.DisplayedCount
	resp.TrueCount = result.TrueCount
	return resp
}

// ────────────────────── Referrals ──────────────────────

func (s *leaderboardService) Referrals(ctx context.Context, identity *policy.Identity) *dto.ReferralsResponse {
	resp := &dto.ReferralsResponse{Rows: []policy.ParticipantRow{}}

	tier := s.viewer.Classify(ctx, identity)
	if !tier.Privileged() {
		return resp
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		s.logger.Error("读取邀请列表快照失败，返回空结果", zap.Error(err))
		return resp
	}

	resp.Rows = policy.ResolveReferrals(identity.ParticipantID, snap)
	resp.Count = len(resp.Rows)
	return resp
}
