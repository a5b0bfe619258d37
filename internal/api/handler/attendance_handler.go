package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/service"
	"learning-circle/backend/pkg/response"
)

// AttendanceHandler 聚会参与 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	logger        *zap.Logger
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc, logger: logger}
}

// JoinMeeting 收藏或签到
// POST /api/v1/learning-circles/meeting/join/:meet_id
func (h *AttendanceHandler) JoinMeeting(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 开始前收藏可不带请求体
	var req dto.JoinMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, codeInvalidParams, "请求体格式错误")
		return
	}

	result, err := h.attendanceSvc.Join(c.Request.Context(), c.Param("meet_id"), userID, req.Code)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, result)
}

// LeaveMeeting 退出聚会
// DELETE /api/v1/learning-circles/meeting/leave/:meet_id
func (h *AttendanceHandler) LeaveMeeting(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.Leave(c.Request.Context(), c.Param("meet_id"), userID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}
