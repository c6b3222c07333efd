package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"giveaway-rewards/backend/internal/dto"
	"giveaway-rewards/backend/internal/service"
	"giveaway-rewards/backend/pkg/response"
)

// ParticipantHandler 参与者模块 HTTP 处理器
type ParticipantHandler struct {
	participantSvc service.ParticipantService
}

// NewParticipantHandler 创建 ParticipantHandler
func NewParticipantHandler(participantSvc service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantSvc: participantSvc}
}

// Signup 报名参与活动
// POST /api/v1/participants/me
func (h *ParticipantHandler) Signup(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.participantSvc.Signup(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, resp)
}

// GetMe 获取当前参与者档案
// GET /api/v1/participants/me
func (h *ParticipantHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.participantSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, resp)
}

// UpdateMe 修改当前参与者档案
// PUT /api/v1/participants/me
func (h *ParticipantHandler) UpdateMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.participantSvc.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, resp)
}

// Activate 激活参与者（管理员）
// POST /api/v1/admin/participants/:id/activate
func (h *ParticipantHandler) Activate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.participantSvc.Activate(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, resp)
}

// AssignRole 分配角色（管理员）
// PUT /api/v1/admin/participants/:id/role
func (h *ParticipantHandler) AssignRole(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.participantSvc.AssignRole(c.Request.Context(), c.Param("id"), req.Role, callerID); err != nil {
		h.handleError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ParticipantHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrParticipantNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrParticipantExists):
		response.Conflict(c, 20002, err.Error())
	case errors.Is(err, service.ErrInvalidIdentity):
		response.Unauthorized(c, 10002, err.Error())
	case errors.Is(err, service.ErrInvalidReferrer):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, service.ErrReferrerNotFound):
		response.BadRequest(c, 20004, err.Error())
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 20005, err.Error())
	case errors.Is(err, service.ErrCannotChangeOwnRole):
		response.Forbidden(c, 20006, err.Error())
	default:
		response.InternalError(c)
	}
}
