package handler

import (
	"github.com/gin-gonic/gin"

	"giveaway-rewards/backend/internal/api/middleware"
	"giveaway-rewards/backend/internal/service"
	"giveaway-rewards/backend/pkg/response"
)

// LeaderboardHandler 排行榜 HTTP 处理器
type LeaderboardHandler struct {
	leaderboardSvc service.LeaderboardService
}

// NewLeaderboardHandler 创建 LeaderboardHandler
func NewLeaderboardHandler(leaderboardSvc service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardSvc: leaderboardSvc}
}

// Get 按访问者等级返回排行榜视图
// GET /api/v1/leaderboard
// 未登录也可访问；可见范围由服务端判定，任何失败都只会收窄视图
func (h *LeaderboardHandler) Get(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	resp := h.leaderboardSvc.Get(c.Request.Context(), identity, sessionKey(c))
	response.OK(c, resp)
}

// Referrals 当前用户邀请的参与者及其全局名次
// GET /api/v1/leaderboard/referrals
func (h *LeaderboardHandler) Referrals(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}
	resp := h.leaderboardSvc.Referrals(c.Request.Context(), middleware.IdentityFrom(c))
	response.OK(c, resp)
}
