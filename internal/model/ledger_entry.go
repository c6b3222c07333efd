package model

import (
	"time"

	"gorm.io/gorm"

	pkgerrors "giveaway-rewards/backend/pkg/errors"
)

// LedgerEntry 积分流水表 — 对应 ledger_entries
// 只追加：模型钩子拒绝一切 UPDATE / DELETE
type LedgerEntry struct {
	LedgerEntryID string    `gorm:"type:uuid;primaryKey"                json:"ledger_entry_id"`
	ParticipantID string    `gorm:"type:uuid;not null;index:idx_ledger_participant_time,priority:1" json:"participant_id"`
	Action        string    `gorm:"type:varchar(50);not null"           json:"action"`
	Points        int       `gorm:"not null"                            json:"points"`
	GiveawayRef   *string   `gorm:"type:uuid"                           json:"giveaway_ref,omitempty"`
	CreatedAt     time.Time `gorm:"not null;index:idx_ledger_participant_time,priority:2" json:"created_at"`
}

// TableName 指定表名
func (LedgerEntry) TableName() string { return "ledger_entries" }

// BeforeCreate 主键为空时生成 UUID
func (e *LedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.LedgerEntryID == "" {
		e.LedgerEntryID = newID()
	}
	return nil
}

// BeforeUpdate 流水不可修改
func (e *LedgerEntry) BeforeUpdate(_ *gorm.DB) error {
	return pkgerrors.ErrAppendOnly
}

// BeforeDelete 流水不可删除
func (e *LedgerEntry) BeforeDelete(_ *gorm.DB) error {
	return pkgerrors.ErrAppendOnly
}
