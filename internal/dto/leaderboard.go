package dto

import "giveaway-rewards/backend/internal/policy"

// ── 排行榜模块 DTO ──

// LeaderboardResponse 排行榜响应
// TrueCount 仅管理员可见；Rank 仅 activated/admin 可见
type LeaderboardResponse struct {
	Tier           policy.Tier             `json:"tier"`
	Rows           []policy.ParticipantRow `json:"rows"`
	DisplayedCount int                     `json:"displayed_count"`
	TrueCount      *int                    `json:"true_count,omitempty"`
}

// ReferralsResponse 我邀请的参与者
type ReferralsResponse struct {
	Rows  []policy.ParticipantRow `json:"rows"`
	Count int                     `json:"count"`
}
