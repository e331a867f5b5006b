package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData 用户从未成功同步过
	ErrNoData = errors.New("暂无可用数据")
	// ErrNegativeXP 经验只增不减
	ErrNegativeXP = errors.New("经验值不能为负")
	// ErrThrottled 同步请求过于频繁
	ErrThrottled = errors.New("同步请求过于频繁")
)

// PersistenceError 同步写入失败，事务已整体回滚
type PersistenceError struct {
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("保存 %s 同步结果失败: %v", e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence 是否为写入失败
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
