package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learning-circle/backend/internal/service"
)

// CalendarHandler 日历订阅 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
	logger      *zap.Logger
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc, logger: logger}
}

// CircleCalendar 学习圈 iCalendar 订阅
// GET /api/v1/learning-circles/calendar/:circle_id
func (h *CalendarHandler) CircleCalendar(c *gin.Context) {
	text, err := h.calendarSvc.CircleCalendar(c.Request.Context(), c.Param("circle_id"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="learning-circle.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(text))
}
