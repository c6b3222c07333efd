package dto

// ── 奖励规则模块 DTO ──

// UpdateRewardSettingsRequest 更新奖励规则请求（字段级部分更新）
type UpdateRewardSettingsRequest struct {
	LeaderboardCap         *int  `json:"leaderboard_cap"          binding:"omitempty,min=1,max=1000"`
	DailyPointsCap         *int  `json:"daily_points_cap"         binding:"omitempty,min=1,max=100000"`
	DuplicateWindowSeconds *int  `json:"duplicate_window_seconds" binding:"omitempty,min=0,max=86400"`
	StableGuestShuffle     *bool `json:"stable_guest_shuffle"`
}

// RewardSettingsResponse 奖励规则响应
type RewardSettingsResponse struct {
	LeaderboardCap         int            `json:"leaderboard_cap"`
	DailyPointsCap         int            `json:"daily_points_cap"`
	DuplicateWindowSeconds int            `json:"duplicate_window_seconds"`
	StableGuestShuffle     bool           `json:"stable_guest_shuffle"`
	Actions                map[string]int `json:"actions"`
	Timezone               string         `json:"timezone"`
	Version                int            `json:"version"`
	UpdatedAt              string         `json:"updated_at,omitempty"`
}
