// Package policy 排行榜可见性与积分发放的纯规则。
//
// 本包不做任何 I/O：调用方负责读取快照、身份与当日已发积分，
// 再把结果交给这里的函数做决策。所有函数可被任意数量的请求并发调用。
package policy
