package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Participant ParticipantRepository
	Ledger      LedgerRepository
	Settings    SettingsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		Participant: NewParticipantRepo(db),
		Ledger:      NewLedgerRepo(db),
		Settings:    NewSettingsRepo(db),
	}
}

// Ping 检查数据库连通性，供健康检查使用
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
