package policy

import (
	"errors"
	"time"
)

// DefaultDailyPointsCap 每位参与者每日最多可获得的积分
const DefaultDailyPointsCap = 100

// RejectReason 积分发放被拒绝的原因，直接返回给前端用于展示
type RejectReason string

const (
	ReasonDailyCapExceeded    RejectReason = "daily_cap_exceeded"
	ReasonPersistenceError    RejectReason = "persistence_error"
	ReasonInvalidPoints       RejectReason = "invalid_points"
	ReasonDuplicateAction     RejectReason = "duplicate_action"
	ReasonUnknownAction       RejectReason = "unknown_action"
	ReasonParticipantNotFound RejectReason = "participant_not_found"
)

// ErrDailyCapExceeded 本次发放会使当日累计超过上限
var ErrDailyCapExceeded = errors.New("超出每日积分上限")

// ErrInvalidPoints 积分必须为非负整数
var ErrInvalidPoints = errors.New("积分不能为负数")

// AwardResult 一次发放尝试的结果；拒绝时 NewTotal 为发放前的总积分（未知时为 0）
type AwardResult struct {
	Accepted bool         `json:"accepted"`
	NewTotal int          `json:"new_total"`
	Reason   RejectReason `json:"reason,omitempty"`
}

// Accept 构造接受结果
func Accept(newTotal int) AwardResult {
	return AwardResult{Accepted: true, NewTotal: newTotal}
}

// Reject 构造拒绝结果
func Reject(reason RejectReason, total int) AwardResult {
	return AwardResult{Accepted: false, NewTotal: total, Reason: reason}
}

// Decide 判断在当日已获得 earnedToday 的前提下能否再发放 points。
// 恰好达到上限是允许的。
func Decide(earnedToday, points, dailyCap int) error {
	if points < 0 {
		return ErrInvalidPoints
	}
	if earnedToday+points > dailyCap {
		return ErrDailyCapExceeded
	}
	return nil
}

// StartOfDay 返回 now 在 loc 时区下当日零点（以 UTC 表示）
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}
