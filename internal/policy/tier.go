package policy

import "giveaway-rewards/backend/internal/model"

// Tier 访问者等级，决定排行榜可见范围
type Tier string

const (
	TierGuest       Tier = "guest"
	TierUnactivated Tier = "unactivated"
	TierActivated   Tier = "activated"
	TierAdmin       Tier = "admin"
)

// Valid 是否为已知等级
func (t Tier) Valid() bool {
	switch t {
	case TierGuest, TierUnactivated, TierActivated, TierAdmin:
		return true
	}
	return false
}

// Privileged 是否可以看到真实排名（确定性排序）
func (t Tier) Privileged() bool {
	return t == TierActivated || t == TierAdmin
}

// Identity 会话身份；nil 表示未登录
type Identity struct {
	ParticipantID string
}

// Profile 分类所需的参与者档案字段
type Profile struct {
	ParticipantID string
	Role          string
	Activated     bool
}

// ProfileFromModel 从持久化模型提取档案
func ProfileFromModel(p *model.Participant) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ParticipantID: p.ParticipantID,
		Role:          p.Role,
		Activated:     p.Activated,
	}
}

// IsElevatedRole admin 与 staff 都视为管理员等级
func IsElevatedRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleStaff
}

// Classify 根据身份与档案判定访问者等级。
//
// 无身份 → guest；档案缺失 → guest（宁可少给权限）；
// 管理角色优先于激活状态；其余按激活状态区分。
func Classify(identity *Identity, profile *Profile) Tier {
	if identity == nil || identity.ParticipantID == "" {
		return TierGuest
	}
	if profile == nil || profile.ParticipantID != identity.ParticipantID {
		return TierGuest
	}
	if IsElevatedRole(profile.Role) {
		return TierAdmin
	}
	if profile.Activated {
		return TierActivated
	}
	return TierUnactivated
}
