package model

import (
	"time"

	"gorm.io/gorm"
)

// 参与者角色
const (
	RoleParticipant = "participant"
	RoleStaff       = "staff"
	RoleAdmin       = "admin"
)

// Participant 参与者表 — 对应 participants
// TotalPoints 只能通过积分账本写入，ActivatedAt 一经设置不再回退
type Participant struct {
	ParticipantID string     `gorm:"type:uuid;primaryKey"                           json:"participant_id"`
	DisplayName   string     `gorm:"type:varchar(100);not null"                     json:"display_name"`
	AvatarRef     string     `gorm:"type:varchar(500);not null;default:''"          json:"avatar_ref"`
	Role          string     `gorm:"type:varchar(20);not null;default:'participant'" json:"role"`
	Activated     bool       `gorm:"not null;default:false"                         json:"activated"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	ReferredBy    *string    `gorm:"type:uuid;index"                                json:"referred_by,omitempty"`
	TotalPoints   int        `gorm:"not null;default:0"                             json:"total_points"`
	BaseModel
}

// TableName 指定表名
func (Participant) TableName() string { return "participants" }

// BeforeCreate 主键为空时生成 UUID
func (p *Participant) BeforeCreate(_ *gorm.DB) error {
	if p.ParticipantID == "" {
		p.ParticipantID = newID()
	}
	if p.Role == "" {
		p.Role = RoleParticipant
	}
	return nil
}

// IsValidRole 检查角色取值
func IsValidRole(role string) bool {
	switch role {
	case RoleParticipant, RoleStaff, RoleAdmin:
		return true
	}
	return false
}
