package handler

import "giveaway-rewards/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Leaderboard *LeaderboardHandler
	Participant *ParticipantHandler
	Points      *PointsHandler
	Settings    *SettingsHandler
	Export      *ExportHandler
	Health      *HealthHandler
}

// NewHandler 创建 Handler 聚合；deps 为健康检查探活的依赖
func NewHandler(svc *service.Service, deps map[string]Pinger) *Handler {
	return &Handler{
		Leaderboard: NewLeaderboardHandler(svc.Leaderboard),
		Participant: NewParticipantHandler(svc.Participant),
		Points:      NewPointsHandler(svc.Points),
		Settings:    NewSettingsHandler(svc.Settings),
		Export:      NewExportHandler(svc.Export),
		Health:      NewHealthHandler(deps),
	}
}
