package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/service"
	"giveaway-rewards/backend/pkg/jwt"
	"giveaway-rewards/backend/pkg/response"
)

// ContextUserID 上下文中登录身份的键
const ContextUserID = "user_id"

// ContextTier 上下文中访问者等级的键（AdminOnly 写入）
const ContextTier = "tier"

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		// 只注入身份；角色一律以数据库档案为准
		c.Set(ContextUserID, claims.UserID)

		c.Next()
	}
}

// OptionalAuth 可选认证：Token 缺失或无效时按未登录继续
func OptionalAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := jwtMgr.ParseToken(token); err == nil {
				c.Set(ContextUserID, claims.UserID)
			}
		}
		c.Next()
	}
}

// IdentityFrom 从上下文构造访问者身份，未登录返回 nil
func IdentityFrom(c *gin.Context) *policy.Identity {
	id := c.GetString(ContextUserID)
	if id == "" {
		return nil
	}
	return &policy.Identity{ParticipantID: id}
}

// AdminOnly 管理员权限中间件，须挂在 JWTAuth 之后
// 通过访问者等级判定（读数据库角色），而不是 Token 中的 role 声明
func AdminOnly(viewer service.ViewerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		tier := viewer.Classify(c.Request.Context(), identity)
		if tier != policy.TierAdmin {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Set(ContextTier, tier)
		c.Next()
	}
}
