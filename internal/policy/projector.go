package policy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/rand/v2"
)

// DefaultLeaderboardCap 非管理员最多可见的行数
const DefaultLeaderboardCap = 60

// ErrUnknownTier 调用方传入了未知等级；结果已按 guest 投影
var ErrUnknownTier = errors.New("未知的访问者等级")

// VisibilityResult 某一访问者可见的排行榜
type VisibilityResult struct {
	Rows           []ParticipantRow
	DisplayedCount int
	TrueCount      *int // 仅管理员可见
}

// Shuffler 与 rand.Shuffle 同签名的洗牌函数
type Shuffler func(n int, swap func(i, j int))

// RandomShuffler 每次调用使用运行时的随机源，可并发调用且互不相关
func RandomShuffler() Shuffler {
	return rand.Shuffle
}

// SeededShuffler 由服务端密钥与会话标识派生种子；同一 secret+key 得到同一排列。
// 种子为 HMAC-SHA256(secret, key)，不知道 secret 无法复现排列，也就无法由展示顺序反推名次。
// secret 为空时退化为 RandomShuffler。
func SeededShuffler(secret []byte, key string) Shuffler {
	if len(secret) == 0 {
		return RandomShuffler()
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(key))
	sum := mac.Sum(nil)
	r := rand.New(rand.NewPCG(binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])))
	return r.Shuffle
}

// Project 按访问者等级把全量快照投影为可见结果。
//
//   - admin：全部行，确定性排序，给出真实总数，不受 rowCap 限制
//   - activated：确定性排序后截断到 rowCap，行带真实名次
//   - guest / unactivated：全量洗牌后截断到 rowCap，不带名次
//
// 未知等级按 guest 处理并同时返回 ErrUnknownTier。shuffle 为 nil 时使用 RandomShuffler。
func Project(snapshot ScoreSnapshot, tier Tier, rowCap int, shuffle Shuffler) (VisibilityResult, error) {
	if rowCap < 0 {
		rowCap = 0
	}

	var err error
	if !tier.Valid() {
		err = ErrUnknownTier
		tier = TierGuest
	}

	switch tier {
	case TierAdmin:
		return projectAdmin(snapshot), err
	case TierActivated:
		return projectRanked(snapshot, rowCap), err
	default:
		if shuffle == nil {
			shuffle = RandomShuffler()
		}
		return projectShuffled(snapshot, rowCap, shuffle), err
	}
}

// AdminTrueCount 管理员可见的真实参与人数，不做缓存
func AdminTrueCount(snapshot ScoreSnapshot) int {
	return len(snapshot)
}

func projectAdmin(snapshot ScoreSnapshot) VisibilityResult {
	sorted := snapshot.Sorted()
	rows := make([]ParticipantRow, len(sorted))
	for i, e := range sorted {
		rows[i] = e.row(i + 1)
	}
	total := AdminTrueCount(snapshot)
	return VisibilityResult{
		Rows:           rows,
		DisplayedCount: total,
		TrueCount:      &total,
	}
}

func projectRanked(snapshot ScoreSnapshot, rowCap int) VisibilityResult {
	sorted := snapshot.Sorted()
	n := min(len(sorted), rowCap)
	rows := make([]ParticipantRow, n)
	for i := 0; i < n; i++ {
		rows[i] = sorted[i].row(i + 1)
	}
	return VisibilityResult{Rows: rows, DisplayedCount: n}
}

func projectShuffled(snapshot ScoreSnapshot, rowCap int, shuffle Shuffler) VisibilityResult {
	// 先做确定性排序，保证同一种子在不同输入顺序下得到同一排列
	pool := snapshot.Sorted()
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := min(len(pool), rowCap)
	rows := make([]ParticipantRow, n)
	for i := 0; i < n; i++ {
		rows[i] = pool[i].row(0)
	}
	return VisibilityResult{Rows: rows, DisplayedCount: n}
}
