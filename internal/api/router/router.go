package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"giveaway-rewards/backend/config"
	"giveaway-rewards/backend/internal/api/handler"
	"giveaway-rewards/backend/internal/api/middleware"
	"giveaway-rewards/backend/internal/service"
	"giveaway-rewards/backend/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	limiter middleware.RateLimiter,
	viewer service.ViewerService,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Check)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 排行榜（可匿名访问，可见范围按等级裁剪）
		v1.GET("/leaderboard", middleware.OptionalAuth(jwtMgr), h.Leaderboard.Get)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			authorized.GET("/leaderboard/referrals", h.Leaderboard.Referrals)

			// 参与者模块
			authorized.POST("/participants/me", h.Participant.Signup)
			authorized.GET("/participants/me", h.Participant.GetMe)
			authorized.PUT("/participants/me", h.Participant.UpdateMe)

			// 积分模块
			rule := cfg.Server.RateLimit
			authorized.POST("/points/award", middleware.RateLimit(limiter, rule.Limit, rule.Window, logger), h.Points.Award)
			authorized.GET("/points/history", h.Points.History)
			authorized.GET("/points/summary", h.Points.Summary)

			// 管理接口
			admin := authorized.Group("/admin")
			admin.Use(middleware.AdminOnly(viewer))
			{
				admin.POST("/participants/:id/activate", h.Participant.Activate)
				admin.PUT("/participants/:id/role", h.Participant.AssignRole)
				admin.POST("/participants/:id/reconcile", h.Points.Reconcile)

				admin.GET("/settings", h.Settings.Get)
				admin.PUT("/settings", h.Settings.Update)

				admin.GET("/export/leaderboard", h.Export.ExportLeaderboard)
			}
		}
	}

	return r
}
