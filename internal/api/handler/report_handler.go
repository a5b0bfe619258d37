package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/service"
	"learning-circle/backend/pkg/response"
)

// ReportHandler 报告流程 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
	logger    *zap.Logger
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, logger: logger}
}

// ── 参与者个人报告 ──

// SubmitAttendeeReport 提交个人报告
// POST /api/v1/learning-circles/meeting/attendee-report/:meet_id
func (h *ReportHandler) SubmitAttendeeReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AttendeeReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reportSvc.SubmitAttendeeReport(c.Request.Context(), c.Param("meet_id"), userID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, report)
}

// GetAttendeeReport 查看本人的个人报告
// GET /api/v1/learning-circles/meeting/attendee-report/:meet_id
func (h *ReportHandler) GetAttendeeReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.GetAttendeeReport(c.Request.Context(), c.Param("meet_id"), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, report)
}

// WithdrawAttendeeReport 撤回个人报告
// DELETE /api/v1/learning-circles/meeting/attendee-report/:meet_id
func (h *ReportHandler) WithdrawAttendeeReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reportSvc.WithdrawAttendeeReport(c.Request.Context(), c.Param("meet_id"), userID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}

// ── 组织者汇总报告 ──

// SubmitReport 提交汇总报告并审批参与者
// POST /api/v1/learning-circles/meeting/report/:meet_id
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CircleReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.reportSvc.SubmitReport(c.Request.Context(), c.Param("meet_id"), userID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, report)
}

// GetReport 查看汇总报告
// GET /api/v1/learning-circles/meeting/report/:meet_id
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.GetReport(c.Request.Context(), c.Param("meet_id"), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, report)
}

// DeleteReport 删除汇总报告
// DELETE /api/v1/learning-circles/meeting/report/:meet_id
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reportSvc.DeleteReport(c.Request.Context(), c.Param("meet_id"), userID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.OK(c, nil)
}
