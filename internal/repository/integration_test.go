//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"giveaway-rewards/backend/internal/model"
	"giveaway-rewards/backend/internal/policy"
	"giveaway-rewards/backend/internal/repository"
	"giveaway-rewards/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=rewards password=rewards_password dbname=rewards_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	// 先整体回滚，保证 down 迁移可用且每轮从空 schema 开始
	if err := database.ResetMigrations(sqlDB); err != nil {
		fmt.Fprintf(os.Stderr, "回滚迁移失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupParticipant 创建测试参与者；流水只追加，清理时依次绕过触发器删除
func setupParticipant(t *testing.T) (*model.Participant, func()) {
	t.Helper()
	p := &model.Participant{DisplayName: fmt.Sprintf("测试参与者-%d", time.Now().UnixNano())}
	if err := testDB.Create(p).Error; err != nil {
		t.Fatalf("创建参与者失败: %v", err)
	}
	cleanup := func() {
		testDB.Exec("ALTER TABLE ledger_entries DISABLE TRIGGER trg_ledger_entries_append_only")
		testDB.Exec("DELETE FROM ledger_entries WHERE participant_id = ?", p.ParticipantID)
		testDB.Exec("ALTER TABLE ledger_entries ENABLE TRIGGER trg_ledger_entries_append_only")
		testDB.Exec("DELETE FROM participants WHERE participant_id = ?", p.ParticipantID)
	}
	return p, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: Row Lock Serializes Same-Participant Awards
// ═══════════════════════════════════════════════════════════

func TestPostgres_ConcurrentAwardsRespectCap(t *testing.T) {
	p, cleanup := setupParticipant(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	since := policy.StartOfDay(time.Now(), time.UTC)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Ledger.AppendWithinCap(ctx, &model.LedgerEntry{
				ParticipantID: p.ParticipantID, Action: "share_native", Points: 10,
			}, 100, since)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, policy.ErrDailyCapExceeded):
				rejected++
			default:
				t.Errorf("意外错误: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 10 || rejected != 10 {
		t.Errorf("期望接受 10 / 拒绝 10，实际 %d / %d", accepted, rejected)
	}

	sum, _ := repo.Ledger.SumSince(ctx, p.ParticipantID, since)
	got, _ := repo.Participant.GetByID(ctx, p.ParticipantID)
	if sum != 100 || got.TotalPoints != 100 {
		t.Errorf("期望流水合计与总分均为 100，实际 sum=%d total=%d", sum, got.TotalPoints)
	}
}

func TestPostgres_DifferentParticipantsInParallel(t *testing.T) {
	a, cleanupA := setupParticipant(t)
	defer cleanupA()
	b, cleanupB := setupParticipant(t)
	defer cleanupB()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	since := policy.StartOfDay(time.Now(), time.UTC)

	// a 的事务持有行锁期间，b 的发放不应被阻塞
	tx := testDB.Begin()
	defer tx.Rollback()
	if err := tx.Exec("SELECT 1 FROM participants WHERE participant_id = ? FOR UPDATE", a.ParticipantID).Error; err != nil {
		t.Fatalf("加锁失败: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := repo.Ledger.AppendWithinCap(ctx, &model.LedgerEntry{
			ParticipantID: b.ParticipantID, Action: "share_copy", Points: 5,
		}, 100, since)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("b 的发放失败: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("b 的发放被 a 的行锁阻塞")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Append-only Trigger
// ═══════════════════════════════════════════════════════════

func TestPostgres_LedgerTriggerRejectsUpdate(t *testing.T) {
	p, cleanup := setupParticipant(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	entry := &model.LedgerEntry{ParticipantID: p.ParticipantID, Action: "daily_visit", Points: 2}
	if _, err := repo.Ledger.AppendWithinCap(context.Background(), entry, 100, policy.StartOfDay(time.Now(), time.UTC)); err != nil {
		t.Fatalf("发放失败: %v", err)
	}

	err := testDB.Exec("UPDATE ledger_entries SET points = 50 WHERE ledger_entry_id = ?", entry.LedgerEntryID).Error
	if err == nil {
		t.Error("数据库层应拒绝修改流水")
	}
}

func TestPostgres_SettingsRowAbsentAfterMigration(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	// 迁移不写入规则行，未经管理员修改前由配置文件提供取值
	if _, err := repo.Settings.Get(ctx); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("迁移后不应存在规则行，得到: %v", err)
	}

	row := &model.RewardSettings{LeaderboardCap: 40, DailyPointsCap: 250, DuplicateWindowSeconds: 30}
	if err := repo.Settings.Create(ctx, row); err != nil {
		t.Fatalf("创建规则行失败: %v", err)
	}
	defer testDB.Exec("DELETE FROM reward_settings")

	got, err := repo.Settings.Get(ctx)
	if err != nil {
		t.Fatalf("读取规则行失败: %v", err)
	}
	if got.DailyPointsCap != 250 || got.LeaderboardCap != 40 || got.Version != 1 {
		t.Errorf("规则行取值不符: %+v", got)
	}
}
