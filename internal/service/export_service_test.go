package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func setupTestExportService(t *testing.T) (ExportService, *mockStore) {
	freezeTime(t, testDay)
	repo, store, _ := newTestRepository()
	return NewExportService(repo, zap.NewNop()), store
}

func TestExportService_ExportLeaderboard(t *testing.T) {
	svc, store := setupTestExportService(t)
	for i := 0; i < 75; i++ {
		store.add(fmt.Sprintf("u%03d", i), i, testDay.Add(time.Duration(i)*time.Second))
	}

	buf, filename, err := svc.ExportLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("ExportLeaderboard 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾，实际 %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开生成的 Excel 失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("排行榜")
	if err != nil {
		t.Fatalf("读取排行榜 Sheet 失败: %v", err)
	}
	// 表头 + 全部 75 行，不受 60 行上限影响
	if len(rows) != 76 {
		t.Errorf("期望 76 行，实际 %d", len(rows))
	}
	if rows[1][2] != "u074" || rows[1][0] != "1" {
		t.Errorf("第一名应为 u074，实际 %v", rows[1])
	}

	total, _ := f.GetCellValue("汇总", "B1")
	if total != "75" {
		t.Errorf("汇总真实人数期望 75，实际 %s", total)
	}
}

func TestExportService_ExportLeaderboard_Empty(t *testing.T) {
	svc, _ := setupTestExportService(t)

	buf, _, err := svc.ExportLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("空排行榜也应能导出: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开生成的 Excel 失败: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("排行榜")
	if len(rows) != 1 {
		t.Errorf("期望仅表头 1 行，实际 %d", len(rows))
	}
}

func TestExportService_ExportLeaderboard_StoreError(t *testing.T) {
	svc, store := setupTestExportService(t)
	store.snapshotErr = errors.New("db down")

	if _, _, err := svc.ExportLeaderboard(context.Background()); err == nil {
		t.Error("存储故障时导出应返回错误")
	}
}
