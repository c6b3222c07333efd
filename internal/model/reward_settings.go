package model

// RewardSettings 排行榜与积分规则 — 对应 reward_settings（单行强类型）
type RewardSettings struct {
	Singleton              bool `gorm:"primaryKey;default:true" json:"-"`
	LeaderboardCap         int  `gorm:"not null;default:60"     json:"leaderboard_cap"`
	DailyPointsCap         int  `gorm:"not null;default:100"    json:"daily_points_cap"`
	DuplicateWindowSeconds int  `gorm:"not null;default:0"      json:"duplicate_window_seconds"`
	StableGuestShuffle     bool `gorm:"not null;default:false"  json:"stable_guest_shuffle"`
	VersionedModel
}

// TableName 指定表名
func (RewardSettings) TableName() string { return "reward_settings" }
