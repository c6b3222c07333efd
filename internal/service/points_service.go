package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/model"
	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/repository"
)

// ── 积分模块业务错误 ──

var (
	ErrLedgerParticipantNotFound = errors.New("参与者不存在")
)

// PointsService 积分账本业务接口
//
// 所有发放结果都以 policy.AwardResult 返回，拒绝原因见 policy.RejectReason，
// 调用方无需区分 error 与拒绝。
type PointsService interface {
	// TryAward 每日上限守卫：检查与写入在同一事务内完成
	TryAward(ctx context.Context, participantID, action string, points, dailyCap int) policy.AwardResult
	// AwardAction 按动作目录查积分、应用当前上限与重复动作窗口后发放
	AwardAction(ctx context.Context, participantID, action string, giveawayRef *string) policy.AwardResult
	History(ctx context.Context, participantID string, req *dto.LedgerHistoryRequest) ([]dto.LedgerEntryResponse, int64, error)
	// Summary 今日已得、剩余额度与按流水合计的总积分
	Summary(ctx context.Context, participantID string) (*dto.PointsSummaryResponse, error)
	Reconcile(ctx context.Context, participantID string) (*dto.ReconcileResponse, error)
}

type pointsService struct {
	repo     *repository.Repository
	settings SettingsService
	dedup    DuplicateGuard
	logger   *zap.Logger
}

// NewPointsService 创建 PointsService 实例
func NewPointsService(repo *repository.Repository, settings SettingsService, dedup DuplicateGuard, logger *zap.Logger) PointsService {
	return &pointsService{repo: repo, settings: settings, dedup: dedup, logger: logger}
}

// ────────────────────── TryAward ──────────────────────

func (s *pointsService) TryAward(ctx context.Context, participantID, action string, points, dailyCap int) policy.AwardResult {
	return s.award(ctx, s.settings.Current(ctx), participantID, action, points, dailyCap, nil)
}

// award rules 由调用方读取一次后传入，同一次发放内不重复查询规则行
func (s *pointsService) award(ctx context.Context, rules RewardRules, participantID, action string, points, dailyCap int, giveawayRef *string) policy.AwardResult {
	if points < 0 {
		return policy.Reject(policy.ReasonInvalidPoints, 0)
	}

	if points == 0 {
		p, err := s.repo.Participant.GetByID(ctx, participantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return policy.Reject(policy.ReasonParticipantNotFound, 0)
			}
			s.logger.Error("查询参与者失败", zap.String("participant_id", participantID), zap.Error(err))
			return policy.Reject(policy.ReasonPersistenceError, 0)
		}
		return policy.Accept(p.TotalPoints)
	}

	current := now()
	entry := &model.LedgerEntry{
		ParticipantID: participantID,
		Action:        action,
		Points:        points,
		GiveawayRef:   giveawayRef,
		CreatedAt:     current.UTC(),
	}

	total, err := s.repo.Ledger.AppendWithinCap(ctx, entry, dailyCap, policy.StartOfDay(current, rules.Location))
	switch {
	case err == nil:
		s.logger.Info("积分发放成功",
			zap.String("participant_id", participantID),
			zap.String("action", action),
			zap.Int("points", points),
			zap.Int("new_total", total),
		)
		return policy.Accept(total)
	case errors.Is(err, policy.ErrDailyCapExceeded):
		s.logger.Info("超出每日积分上限",
			zap.String("participant_id", participantID),
			zap.String("action", action),
			zap.Int("points", points),
			zap.Int("daily_cap", dailyCap),
		)
		return policy.Reject(policy.ReasonDailyCapExceeded, total)
	case errors.Is(err, policy.ErrInvalidPoints):
		return policy.Reject(policy.ReasonInvalidPoints, total)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return policy.Reject(policy.ReasonParticipantNotFound, 0)
	default:
		s.logger.Error("积分发放失败",
			zap.String("participant_id", participantID),
			zap.String("action", action),
			zap.Error(err),
		)
		return policy.Reject(policy.ReasonPersistenceError, 0)
	}
}

// ────────────────────── AwardAction ──────────────────────

func (s *pointsService) AwardAction(ctx context.Context, participantID, action string, giveawayRef *string) policy.AwardResult {
	rules := s.settings.Current(ctx)

	points, ok := rules.Actions[action]
	if !ok {
		return policy.Reject(policy.ReasonUnknownAction, 0)
	}

	var claimKey string
	if s.dedup != nil && rules.DuplicateWindow > 0 {
		ref := "-"
		if giveawayRef != nil {
			ref = *giveawayRef
		}
		claimKey = fmt.Sprintf("points:dedup:%s:%s:%s", participantID, action, ref)

		claimed, err := s.dedup.ClaimOnce(ctx, claimKey, rules.DuplicateWindow)
		switch {
		case err != nil:
			// Redis 出错时降级放行
			s.logger.Warn("重复动作检查失败，跳过", zap.String("key", claimKey), zap.Error(err))
			claimKey = ""
		case !claimed:
			return policy.Reject(policy.ReasonDuplicateAction, 0)
		}
	}

	result := s.award(ctx, rules, participantID, action, points, rules.DailyPointsCap, giveawayRef)

	// 未发放成功时释放标记，允许用户重试
	if !result.Accepted && claimKey != "" {
		if err := s.dedup.Release(ctx, claimKey); err != nil {
			s.logger.Warn("释放重复动作标记失败", zap.String("key", claimKey), zap.Error(err))
		}
	}
	return result
}

// ────────────────────── History ──────────────────────

func (s *pointsService) History(ctx context.Context, participantID string, req *dto.LedgerHistoryRequest) ([]dto.LedgerEntryResponse, int64, error) {
	entries, total, err := s.repo.Ledger.ListByParticipant(ctx, participantID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询积分流水失败", zap.String("participant_id", participantID), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		list = append(list, dto.LedgerEntryResponse{
			ID:          e.LedgerEntryID,
			Action:      e.Action,
			Points:      e.Points,
			GiveawayRef: e.GiveawayRef,
			CreatedAt:   formatTime(e.CreatedAt),
		})
	}
	return list, total, nil
}

// ────────────────────── Summary ──────────────────────

func (s *pointsService) Summary(ctx context.Context, participantID string) (*dto.PointsSummaryResponse, error) {
	p, err := s.repo.Participant.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerParticipantNotFound
		}
		s.logger.Error("查询参与者失败", zap.String("participant_id", participantID), zap.Error(err))
		return nil, err
	}

	rules := s.settings.Current(ctx)
	dayStart := policy.StartOfDay(now(), rules.Location)

	today, err := s.repo.Ledger.SumSince(ctx, participantID, dayStart)
	if err != nil {
		s.logger.Error("统计今日积分失败", zap.String("participant_id", participantID), zap.Error(err))
		return nil, err
	}
	ledgerTotal, err := s.repo.Ledger.SumAll(ctx, participantID)
	if err != nil {
		s.logger.Error("统计流水合计失败", zap.String("participant_id", participantID), zap.Error(err))
		return nil, err
	}

	if ledgerTotal != p.TotalPoints {
		s.logger.Warn("总积分与流水合计不一致，需要重算",
			zap.String("participant_id", participantID),
			zap.Int("total_points", p.TotalPoints),
			zap.Int("ledger_total", ledgerTotal),
		)
	}

	return &dto.PointsSummaryResponse{
		ParticipantID:  participantID,
		TotalPoints:    p.TotalPoints,
		LedgerTotal:    ledgerTotal,
		TodayPoints:    today,
		DailyCap:       rules.DailyPointsCap,
		RemainingToday: max(0, rules.DailyPointsCap-today),
		DayStartsAt:    formatTime(dayStart),
	}, nil
}

// ────────────────────── Reconcile ──────────────────────

func (s *pointsService) Reconcile(ctx context.Context, participantID string) (*dto.ReconcileResponse, error) {
	before, after, err := s.repo.Ledger.Reconcile(ctx, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerParticipantNotFound
		}
		s.logger.Error("重算总积分失败", zap.String("participant_id", participantID), zap.Error(err))
		return nil, err
	}

	if before != after {
		s.logger.Warn("总积分与流水不一致，已修正",
			zap.String("participant_id", participantID),
			zap.Int("before", before),
			zap.Int("after", after),
		)
	}

	return &dto.ReconcileResponse{
		ParticipantID: participantID,
		Before:        before,
		After:         after,
		Fixed:         before != after,
	}, nil
}
