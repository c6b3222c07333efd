package dto

// ── 积分模块 DTO ──

// AwardRequest 积分发放请求；积分值由服务端按动作查表，客户端不能指定
type AwardRequest struct {
	Action      string  `json:"action"       binding:"required,max=50"`
	GiveawayRef *string `json:"giveaway_ref" binding:"omitempty,uuid"`
}

// LedgerEntryResponse 积分流水
type LedgerEntryResponse struct {
	ID          string  `json:"id"`
	Action      string  `json:"action"`
	Points      int     `json:"points"`
	GiveawayRef *string `json:"giveaway_ref,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// LedgerHistoryRequest 流水查询参数
type LedgerHistoryRequest struct {
	PaginationRequest
}

// ReconcileResponse 总积分重算结果
type ReconcileResponse struct {
	ParticipantID string `json:"participant_id"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Fixed         bool   `json:"fixed"`
}

// PointsSummaryResponse 当前用户的积分概况
type PointsSummaryResponse struct {
	ParticipantID  string `json:"participant_id"`
	TotalPoints    int    `json:"total_points"`
	LedgerTotal    int    `json:"ledger_total"`
	TodayPoints    int    `json:"today_points"`
	DailyCap       int    `json:"daily_cap"`
	RemainingToday int    `json:"remaining_today"`
	DayStartsAt    string `json:"day_starts_at"`
}
