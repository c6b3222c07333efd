package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"giveaway-rewards/backend/internal/model"
)

// ParticipantRepository 参与者数据访问接口
// total_points 不在这里写入，统一由 LedgerRepository 维护
type ParticipantRepository interface {
	Create(ctx context.Context, p *model.Participant) error
	GetByID(ctx context.Context, id string) (*model.Participant, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateProfile(ctx context.Context, p *model.Participant) error
	Activate(ctx context.Context, id string, at time.Time, by string) error
	SetRole(ctx context.Context, id, role, by string) error
	// Snapshot 按 积分降序 → 创建时间升序 → ID 升序 返回全部参与者
	Snapshot(ctx context.Context) ([]model.Participant, error)
}

// participantRepo ParticipantRepository 的 GORM 实现
type participantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo 创建 ParticipantRepository 实例
func NewParticipantRepo(db *gorm.DB) ParticipantRepository {
	return &participantRepo{db: db}
}

func (r *participantRepo) Create(ctx context.Context, p *model.Participant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *participantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	var p model.Participant
	err := r.db.WithContext(ctx).
		Where("participant_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("participant_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *participantRepo) UpdateProfile(ctx context.Context, p *model.Participant) error {
	result := r.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("participant_id = ?", p.ParticipantID).
		Updates(map[string]interface{}{
			"display_name": p.DisplayName,
			"avatar_ref":   p.AvatarRef,
			"updated_by":   p.UpdatedBy,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Activate 激活只会从 false → true，已激活时不改写 activated_at
func (r *participantRepo) Activate(ctx context.Context, id string, at time.Time, by string) error {
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return gorm.ErrRecordNotFound
	}

	return r.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("participant_id = ? AND activated = ?", id, false).
		Updates(map[string]interface{}{
			"activated":    true,
			"activated_at": at.UTC(),
			"updated_by":   nullableID(by),
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *participantRepo) SetRole(ctx context.Context, id, role, by string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("participant_id = ?", id).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_by": nullableID(by),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *participantRepo) Snapshot(ctx context.Context) ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.WithContext(ctx).
		Select("participant_id", "display_name", "avatar_ref", "role", "activated",
			"referred_by", "total_points", "created_at").
		Order("total_points DESC").
		Order("created_at ASC").
		Order("participant_id ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
