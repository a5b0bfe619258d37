package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/service"
	"learning-circle/backend/pkg/response"
)

// MeetingHandler 聚会模块 HTTP 处理器
type MeetingHandler struct {
	meetingSvc service.MeetingService
	logger     *zap.Logger
}

// NewMeetingHandler 创建 MeetingHandler
func NewMeetingHandler(meetingSvc service.MeetingService, logger *zap.Logger) *MeetingHandler {
	return &MeetingHandler{meetingSvc: meetingSvc, logger: logger}
}

// CreateMeeting 在学习圈下创建聚会
// POST /api/v1/learning-circles/meeting/create/:circle_id
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateMeetingRequest
	if !bindJSON(c, &req) {
		return
	}

	meeting, err := h.meetingSvc.Create(c.Request.Context(), c.Param("circle_id"), &req, userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.Created(c, meeting)
}

// BrowseMeetings 浏览聚会（可匿名）
// GET /api/v1/learning-circles/meeting/list?category=&saved=&participated=
func (h *MeetingHandler) BrowseMeetings(c *gin.Context) {
	var query dto.BrowseMeetingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, codeInvalidParams, "查询参数格式错误")
		return
	}

	meetings, err := h.meetingSvc.Browse(c.Request.Context(), &query, OptionalUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"list": meetings})
}

// ListCircleMeetings 学习圈下的全部聚会（可匿名）
// GET /api/v1/learning-circles/meeting/list/:circle_id
func (h *MeetingHandler) ListCircleMeetings(c *gin.Context) {
	meetings, err := h.meetingSvc.ListByCircle(c.Request.Context(), c.Param("circle_id"), OptionalUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"list": meetings})
}

// GetMeeting 聚会详情（可匿名）
// GET /api/v1/learning-circles/meeting/info/:meet_id
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	meeting, err := h.meetingSvc.Get(c.Request.Context(), c.Param("meet_id"), OptionalUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, meeting)
}

// UpdateMeeting 编辑聚会
// PUT /api/v1/learning-circles/meeting/edit/:meet_id
func (h *MeetingHandler) UpdateMeeting(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateMeetingRequest
	if !bindJSON(c, &req) {
		return
	}

	meeting, err := h.meetingSvc.Update(c.Request.Context(), c.Param("meet_id"), &req, userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, meeting)
}

// DeleteMeeting 删除聚会
// DELETE /api/v1/learning-circles/meeting/delete/:meet_id
func (h *MeetingHandler) DeleteMeeting(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.meetingSvc.Delete(c.Request.Context(), c.Param("meet_id"), userID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}
