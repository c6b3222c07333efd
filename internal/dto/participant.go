package dto

import "giveaway-rewards/backend/internal/policy"

// ── 参与者模块 DTO ──

// SignupRequest 报名请求；参与者 ID 取自登录身份
type SignupRequest struct {
	DisplayName string  `json:"display_name" binding:"required,min=1,max=100"`
	AvatarRef   string  `json:"avatar_ref"   binding:"omitempty,max=500"`
	ReferredBy  *string `json:"referred_by"  binding:"omitempty,uuid"`
}

// UpdateProfileRequest 修改本人档案（部分更新）
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=1,max=100"`
	AvatarRef   *string `json:"avatar_ref"   binding:"omitempty,max=500"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=participant staff admin"`
}

// ParticipantResponse 参与者档案（含派生等级）
type ParticipantResponse struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	AvatarRef   string      `json:"avatar_ref"`
	Role        string      `json:"role"`
	Tier        policy.Tier `json:"tier"`
	Activated   bool        `json:"activated"`
	ActivatedAt string      `json:"activated_at,omitempty"`
	ReferredBy  *string     `json:"referred_by,omitempty"`
	TotalPoints int         `json:"total_points"`
	CreatedAt   string      `json:"created_at"`
}
