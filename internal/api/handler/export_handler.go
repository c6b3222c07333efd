package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"giveaway-rewards/backend/internal/service"
	"giveaway-rewards/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportLeaderboard 导出完整排行榜（管理员）
// GET /api/v1/admin/export/leaderboard
func (h *ExportHandler) ExportLeaderboard(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportLeaderboard(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
