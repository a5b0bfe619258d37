package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/service"
	"learning-circle/backend/pkg/response"
)

// CircleHandler 学习圈模块 HTTP 处理器
type CircleHandler struct {
	circleSvc service.CircleService
	logger    *zap.Logger
}

// NewCircleHandler 创建 CircleHandler
func NewCircleHandler(circleSvc service.CircleService, logger *zap.Logger) *CircleHandler {
	return &CircleHandler{circleSvc: circleSvc, logger: logger}
}

// CreateCircle 创建学习圈
// POST /api/v1/learning-circles/create
func (h *CircleHandler) CreateCircle(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCircleRequest
	if !bindJSON(c, &req) {
		return
	}

	circle, err := h.circleSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.Created(c, circle)
}

// ListCircles 列出当前用户创建的学习圈
// GET /api/v1/learning-circles/list
func (h *CircleHandler) ListCircles(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	circles, err := h.circleSvc.List(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"list": circles})
}

// GetCircle 学习圈详情（可匿名）
// GET /api/v1/learning-circles/info/:circle_id
func (h *CircleHandler) GetCircle(c *gin.Context) {
	circle, err := h.circleSvc.Get(c.Request.Context(), c.Param("circle_id"), OptionalUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, circle)
}

// UpdateCircle 编辑学习圈
// PUT /api/v1/learning-circles/edit/:circle_id
func (h *CircleHandler) UpdateCircle(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCircleRequest
	if !bindJSON(c, &req) {
		return
	}

	circle, err := h.circleSvc.Update(c.Request.Context(), c.Param("circle_id"), &req, userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, circle)
}

// DeleteCircle 删除学习圈及其全部聚会
// DELETE /api/v1/learning-circles/delete/:circle_id
func (h *CircleHandler) DeleteCircle(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.circleSvc.Delete(c.Request.Context(), c.Param("circle_id"), userID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}
