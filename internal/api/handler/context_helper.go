package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"giveaway-rewards/backend/internal/api/middleware"
	"giveaway-rewards/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// sessionKey 派生访客洗牌种子：登录身份 > X-Session-ID > 客户端 IP
func sessionKey(c *gin.Context) string {
	if id := c.GetString(middleware.ContextUserID); id != "" {
		return "user:" + id
	}
	if sid := c.GetHeader("X-Session-ID"); sid != "" && len(sid) <= 128 {
		return "session:" + sid
	}
	return "ip:" + c.ClientIP()
}

// bindJSON 绑定请求体；超出 BodyLimit 时返回 413，其余校验失败返回 400
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.RequestTooLarge(c)
			return false
		}
		response.BadRequest(c, 10001, "参数校验失败: "+err.Error())
		return false
	}
	return true
}
