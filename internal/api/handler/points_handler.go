package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/service"
	"giveaway-rewards/backend/pkg/response"
)

// PointsHandler 积分模块 HTTP 处理器
type PointsHandler struct {
	pointsSvc service.PointsService
}

// NewPointsHandler 创建 PointsHandler
func NewPointsHandler(pointsSvc service.PointsService) *PointsHandler {
	return &PointsHandler{pointsSvc: pointsSvc}
}

// Award 完成动作领取积分
// POST /api/v1/points/award
// 被拒绝（超出每日上限、重复动作等）同样返回 200，由 accepted/reason 区分
func (h *PointsHandler) Award(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AwardRequest
	if !bindJSON(c, &req) {
		return
	}

	result := h.pointsSvc.AwardAction(c.Request.Context(), userID, req.Action, req.GiveawayRef)
	response.OK(c, result)
}

// History 当前用户的积分流水
// GET /api/v1/points/history
func (h *PointsHandler) History(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.LedgerHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.pointsSvc.History(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Summary 当前用户的积分概况
// GET /api/v1/points/summary
func (h *PointsHandler) Summary(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.pointsSvc.Summary(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, resp)
}

// Reconcile 按流水重算总积分（管理员）
// POST /api/v1/admin/participants/:id/reconcile
func (h *PointsHandler) Reconcile(c *gin.Context) {
	resp, err := h.pointsSvc.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, resp)
}

func (h *PointsHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLedgerParticipantNotFound):
		response.NotFound(c, 30001, err.Error())
	default:
		response.InternalError(c)
	}
}
