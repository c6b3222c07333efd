package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"giveaway-rewards/backend/internal/model"
	"giveaway-rewards/backend/internal/policy"
)

// LedgerRepository 积分流水数据访问接口
// 流水只追加：接口不提供修改与删除
type LedgerRepository interface {
	// AppendWithinCap 在同一事务内锁定参与者行、统计 since 之后的已得积分、
	// 判定上限并写入流水。返回发放后的总积分；被拒绝时返回发放前的总积分与
	// policy.ErrDailyCapExceeded，且不写入任何数据。
	AppendWithinCap(ctx context.Context, entry *model.LedgerEntry, dailyCap int, since time.Time) (int, error)
	SumSince(ctx context.Context, participantID string, since time.Time) (int, error)
	SumAll(ctx context.Context, participantID string) (int, error)
	ListByParticipant(ctx context.Context, participantID string, offset, limit int) ([]model.LedgerEntry, int64, error)
	// Reconcile 以流水合计重算 total_points，返回重算前后的值
	Reconcile(ctx context.Context, participantID string) (before, after int, err error)
}

// ledgerRepo LedgerRepository 的 GORM 实现
type ledgerRepo struct {
	db *gorm.DB
}

// NewLedgerRepo 创建 LedgerRepository 实例
func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db: db}
}

// lockParticipant SELECT ... FOR UPDATE 锁定参与者行
// 同一参与者的并发发放在此串行，不同参与者互不影响
func lockParticipant(tx *gorm.DB, participantID string) (*model.Participant, error) {
	var p model.Participant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("participant_id", "total_points").
		Where("participant_id = ?", participantID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func sumPoints(tx *gorm.DB, participantID string, since *time.Time) (int, error) {
	var sum int64
	q := tx.Model(&model.LedgerEntry{}).
		Select("COALESCE(SUM(points), 0)").
		Where("participant_id = ?", participantID)
	if since != nil {
		q = q.Where("created_at >= ?", since.UTC())
	}
	if err := q.Scan(&sum).Error; err != nil {
		return 0, err
	}
	return int(sum), nil
}

func (r *ledgerRepo) AppendWithinCap(ctx context.Context, entry *model.LedgerEntry, dailyCap int, since time.Time) (int, error) {
	total := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockParticipant(tx, entry.ParticipantID)
		if err != nil {
			return err
		}
		total = p.TotalPoints

		if entry.Points == 0 {
			return nil
		}

		earned, err := sumPoints(tx, entry.ParticipantID, &since)
		if err != nil {
			return err
		}
		if err := policy.Decide(earned, entry.Points, dailyCap); err != nil {
			return err
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Participant{}).
			Where("participant_id = ?", entry.ParticipantID).
			Updates(map[string]interface{}{
				"total_points": gorm.Expr("total_points + ?", entry.Points),
				"updated_at":   time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		total = p.TotalPoints + entry.Points
		return nil
	})
	return total, err
}

func (r *ledgerRepo) SumSince(ctx context.Context, participantID string, since time.Time) (int, error) {
	return sumPoints(r.db.WithContext(ctx), participantID, &since)
}

func (r *ledgerRepo) SumAll(ctx context.Context, participantID string) (int, error) {
	return sumPoints(r.db.WithContext(ctx), participantID, nil)
}

func (r *ledgerRepo) ListByParticipant(ctx context.Context, participantID string, offset, limit int) ([]model.LedgerEntry, int64, error) {
	var entries []model.LedgerEntry
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("participant_id = ?", participantID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at DESC").
		Order("ledger_entry_id DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *ledgerRepo) Reconcile(ctx context.Context, participantID string) (int, int, error) {
	var before, after int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockParticipant(tx, participantID)
		if err != nil {
			return err
		}
		before = p.TotalPoints

		after, err = sumPoints(tx, participantID, nil)
		if err != nil {
			return err
		}
		if after == before {
			return nil
		}

		return tx.Model(&model.Participant{}).
			Where("participant_id = ?", participantID).
			Updates(map[string]interface{}{
				"total_points": after,
				"updated_at":   time.Now().UTC(),
			}).Error
	})
	return before, after, err
}
