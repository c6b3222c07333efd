package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/model"
	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/repository"
)

// ── 参与者模块业务错误 ──

var (
	ErrParticipantNotFound = errors.New("参与者不存在")
	ErrParticipantExists   = errors.New("已报名，无需重复报名")
	ErrInvalidIdentity     = errors.New("登录身份无效")
	ErrInvalidReferrer     = errors.New("不能填写自己为邀请人")
	ErrReferrerNotFound    = errors.New("邀请人不存在")
	ErrInvalidRole         = errors.New("无效的角色")
	ErrCannotChangeOwnRole = errors.New("不能修改自己的角色")
)

// ParticipantService 参与者业务接口
type ParticipantService interface {
	Signup(ctx context.Context, identityID string, req *dto.SignupRequest) (*dto.ParticipantResponse, error)
	GetProfile(ctx context.Context, id string) (*dto.ParticipantResponse, error)
	UpdateProfile(ctx context.Context, id string, req *dto.UpdateProfileRequest) (*dto.ParticipantResponse, error)
	Activate(ctx context.Context, id, callerID string) (*dto.ParticipantResponse, error)
	AssignRole(ctx context.Context, id, role, callerID string) error
}

type participantService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewParticipantService 创建 ParticipantService 实例
func NewParticipantService(repo *repository.Repository, logger *zap.Logger) ParticipantService {
	return &participantService{repo: repo, logger: logger}
}

// ────────────────────── Signup ──────────────────────

func (s *participantService) Signup(ctx context.Context, identityID string, req *dto.SignupRequest) (*dto.ParticipantResponse, error) {
	if _, err := uuid.Parse(identityID); err != nil {
		return nil, ErrInvalidIdentity
	}

	exists, err := s.repo.Participant.Exists(ctx, identityID)
	if err != nil {
		s.logger.Error("查询参与者失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrParticipantExists
	}

	var referredBy *string
	if req.ReferredBy != nil && *req.ReferredBy != "" {
		ref := *req.ReferredBy
		if ref == identityID {
			return nil, ErrInvalidReferrer
		}
		ok, err := s.repo.Participant.Exists(ctx, ref)
		if err != nil {
			s.logger.Error("查询邀请人失败", zap.Error(err))
			return nil, err
		}
		if !ok {
			return nil, ErrReferrerNotFound
		}
		referredBy = &ref
	}

	p := &model.Participant{
		ParticipantID: identityID,
		DisplayName:   req.DisplayName,
		AvatarRef:     req.AvatarRef,
		Role:          model.RoleParticipant,
		ReferredBy:    referredBy,
	}
	p.CreatedBy = &identityID

	// Exists 与 Create 之间可能有并发报名，以数据库约束为准
	if err := s.repo.Participant.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrParticipantExists
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, ErrReferrerNotFound
		}
		s.logger.Error("创建参与者失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("参与者报名成功", zap.String("participant_id", p.ParticipantID))
	return toParticipantResponse(p), nil
}

// ────────────────────── GetProfile ──────────────────────

func (s *participantService) GetProfile(ctx context.Context, id string) (*dto.ParticipantResponse, error) {
	p, err := s.repo.Participant.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		s.logger.Error("查询参与者失败", zap.Error(err))
		return nil, err
	}
	return toParticipantResponse(p), nil
}

// ────────────────────── UpdateProfile ──────────────────────

func (s *participantService) UpdateProfile(ctx context.Context, id string, req *dto.UpdateProfileRequest) (*dto.ParticipantResponse, error) {
	p, err := s.repo.Participant.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		s.logger.Error("查询参与者失败", zap.Error(err))
		return nil, err
	}

	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.AvatarRef != nil {
		p.AvatarRef = *req.AvatarRef
	}
	p.UpdatedBy = &id

	if err := s.repo.Participant.UpdateProfile(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		s.logger.Error("更新参与者档案失败", zap.String("participant_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("参与者档案已更新", zap.String("participant_id", id))
	return toParticipantResponse(p), nil
}

// ────────────────────── Activate ──────────────────────

func (s *participantService) Activate(ctx context.Context, id, callerID string) (*dto.ParticipantResponse, error) {
	if err := s.repo.Participant.Activate(ctx, id, now(), callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		s.logger.Error("激活参与者失败", zap.String("participant_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("参与者已激活", zap.String("participant_id", id), zap.String("operator", callerID))
	return s.GetProfile(ctx, id)
}

// ────────────────────── AssignRole ──────────────────────

func (s *participantService) AssignRole(ctx context.Context, id, role, callerID string) error {
	if !model.IsValidRole(role) {
		return ErrInvalidRole
	}
	if id == callerID {
		return ErrCannotChangeOwnRole
	}

	if err := s.repo.Participant.SetRole(ctx, id, role, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParticipantNotFound
		}
		s.logger.Error("分配角色失败", zap.String("participant_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("角色已变更",
		zap.String("participant_id", id),
		zap.String("role", role),
		zap.String("operator", callerID),
	)
	return nil
}

func toParticipantResponse(p *model.Participant) *dto.ParticipantResponse {
	resp := &dto.ParticipantResponse{
		ID:          p.ParticipantID,
		DisplayName: p.DisplayName,
		AvatarRef:   p.AvatarRef,
		Role:        p.Role,
		Tier:        policy.Classify(&policy.Identity{ParticipantID: p.ParticipantID}, policy.ProfileFromModel(p)),
		Activated:   p.Activated,
		ReferredBy:  p.ReferredBy,
		TotalPoints: p.TotalPoints,
		CreatedAt:   formatTime(p.CreatedAt),
	}
	if p.ActivatedAt != nil {
		resp.ActivatedAt = formatTime(*p.ActivatedAt)
	}
	return resp
}
