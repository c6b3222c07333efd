package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/repository"
)

// ViewerService 访问者等级判定
type ViewerService interface {
	// Classify 查询档案并判定等级；任何查询失败都按 guest 处理
	Classify(ctx context.Context, identity *policy.Identity) policy.Tier
}

type viewerService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewViewerService 创建 ViewerService 实例
func NewViewerService(repo *repository.Repository, logger *zap.Logger) ViewerService {
	return &viewerService{repo: repo, logger: logger}
}

func (s *viewerService) Classify(ctx context.Context, identity *policy.Identity) policy.Tier {
	if identity == nil || identity.ParticipantID == "" {
		return policy.TierGuest
	}

	p, err := s.repo.Participant.GetByID(ctx, identity.ParticipantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 已登录但尚未报名
			s.logger.Debug("访问者尚无参与者档案", zap.String("participant_id", identity.ParticipantID))
		} else {
			s.logger.Warn("查询访问者档案失败，按 guest 处理",
				zap.String("participant_id", identity.ParticipantID),
				zap.Error(err),
			)
		}
		return policy.TierGuest
	}

	return policy.Classify(identity, policy.ProfileFromModel(p))
}
