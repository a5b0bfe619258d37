package handler

import (
	"go.uber.org/zap"

	"learning-circle/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Circle     *CircleHandler
	Meeting    *MeetingHandler
	Attendance *AttendanceHandler
	Report     *ReportHandler
	Calendar   *CalendarHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Circle:     NewCircleHandler(svc.Circle, logger),
		Meeting:    NewMeetingHandler(svc.Meeting, logger),
		Attendance: NewAttendanceHandler(svc.Attendance, logger),
		Report:     NewReportHandler(svc.Report, logger),
		Calendar:   NewCalendarHandler(svc.Calendar, logger),
		Export:     NewExportHandler(svc.Export, logger),
	}
}
