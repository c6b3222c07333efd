package policy

import (
	"sort"
	"time"

	"giveaway-rewards/backend/internal/model"
)

// ScoreEntry 快照中的一行：参与者及其当前总积分
type ScoreEntry struct {
	ParticipantID string
	DisplayName   string
	AvatarRef     string
	ReferredBy    *string
	Points        int
	CreatedAt     time.Time
}

// ScoreSnapshot 单次请求计算出的全量积分快照
type ScoreSnapshot []ScoreEntry

// ParticipantRow 返回给访问者的一行；Rank 为 0 表示不公开名次
type ParticipantRow struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	AvatarRef     string `json:"avatar_ref"`
	Points        int    `json:"points"`
	Rank          int    `json:"rank,omitempty"`
}

// SnapshotFromModels 把持久化的参与者记录转换为快照
func SnapshotFromModels(participants []model.Participant) ScoreSnapshot {
	out := make(ScoreSnapshot, len(participants))
	for i, p := range participants {
		out[i] = ScoreEntry{
			ParticipantID: p.ParticipantID,
			DisplayName:   p.DisplayName,
			AvatarRef:     p.AvatarRef,
			ReferredBy:    p.ReferredBy,
			Points:        p.TotalPoints,
			CreatedAt:     p.CreatedAt,
		}
	}
	return out
}

// Sorted 返回按积分降序、创建时间升序、ID 升序排列的副本，不修改入参
func (s ScoreSnapshot) Sorted() ScoreSnapshot {
	out := make(ScoreSnapshot, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ParticipantID < b.ParticipantID
	})
	return out
}

func (e ScoreEntry) row(rank int) ParticipantRow {
	return ParticipantRow{
		ParticipantID: e.ParticipantID,
		DisplayName:   e.DisplayName,
		AvatarRef:     e.AvatarRef,
		Points:        e.Points,
		Rank:          rank,
	}
}
