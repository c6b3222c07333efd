package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrAppendOnly 账本记录只允许追加，禁止修改或删除
var ErrAppendOnly = errors.New("积分流水只允许追加")
