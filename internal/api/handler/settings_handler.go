package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/service"
	"giveaway-rewards/backend/pkg/response"
)

// SettingsHandler 奖励规则 HTTP 处理器
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler 创建 SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// Get 获取奖励规则
// GET /api/v1/admin/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	resp, err := h.settingsSvc.Get(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, resp)
}

// Update 修改奖励规则（部分更新）
// PUT /api/v1/admin/settings
func (h *SettingsHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateRewardSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.settingsSvc.Update(c.Request.Context(), &req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSettings):
			response.BadRequest(c, 40001, err.Error())
		case errors.Is(err, service.ErrSettingsConflict):
			response.Conflict(c, 40901, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, resp)
}
