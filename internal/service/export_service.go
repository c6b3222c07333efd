package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 仅管理员可调用，导出完整排行榜（不截断、不洗牌）与真实人数
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "排行榜"：名次 / 昵称 / 参与者 ID / 积分
//   - Sheet "汇总"：真实人数、积分合计、导出时间
type ExportService interface {
	ExportLeaderboard(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportLeaderboard — 导出排行榜为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportLeaderboard(ctx context.Context) (*bytes.Buffer, string, error) {
	participants, err := s.repo.Participant.Snapshot(ctx)
	if err != nil {
		s.logger.Error("查询排行榜快照失败", zap.Error(err))
		return nil, "", err
	}

	snap := policy.SnapshotFromModels(participants)
	result, _ := policy.Project(snap, policy.TierAdmin, 0, nil)

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "排行榜"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 24)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "D", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"名次", "昵称", "参与者 ID", "积分"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "D1", headerStyle)

	sum := 0
	for i, r := range result.Rows {
		row := i + 2
		f.SetCellValue(sheetName, cell("A", row), r.Rank)
		f.SetCellValue(sheetName, cell("B", row), r.DisplayName)
		f.SetCellValue(sheetName, cell("C", row), r.ParticipantID)
		f.SetCellValue(sheetName, cell("D", row), r.Points)
		sum += r.Points
	}

	const summarySheet = "汇总"
	f.NewSheet(summarySheet)
	f.SetColWidth(summarySheet, "A", "A", 14)
	f.SetColWidth(summarySheet, "B", "B", 24)
	f.SetCellValue(summarySheet, "A1", "真实人数")
	f.SetCellValue(summarySheet, "B1", policy.AdminTrueCount(snap))
	f.SetCellValue(summarySheet, "A2", "积分合计")
	f.SetCellValue(summarySheet, "B2", sum)
	f.SetCellValue(summarySheet, "A3", "导出时间")
	f.SetCellValue(summarySheet, "B3", formatTime(now()))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排行榜_%s.xlsx", now().UTC().Format("20060102"))
	return buf, filename, nil
}

// colName 0 → "A"
func colName(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
