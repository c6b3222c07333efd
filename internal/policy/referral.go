package policy

// ResolveReferrals 返回由 referrerID 邀请的参与者，顺序与 activated 等级一致。
// 名次为全局名次。纯函数，访问权限由调用方判定。
func ResolveReferrals(referrerID string, snapshot ScoreSnapshot) []ParticipantRow {
	rows := make([]ParticipantRow, 0)
	if referrerID == "" {
		return rows
	}
	for i, e := range snapshot.Sorted() {
		if e.ReferredBy != nil && *e.ReferredBy == referrerID {
			rows = append(rows, e.row(i+1))
		}
	}
	return rows
}
