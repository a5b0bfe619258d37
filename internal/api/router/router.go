package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"learning-circle/backend/config"
	"learning-circle/backend/internal/api/handler"
	"learning-circle/backend/internal/api/middleware"
	"learning-circle/backend/pkg/jwt"
	"learning-circle/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb、db 可为 nil（测试或降级运行）
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	required := middleware.JWTAuth(jwtMgr, rdb, logger)
	optional := middleware.OptionalAuth(jwtMgr, rdb, logger)
	joinLimit := middleware.RateLimit(rdb, cfg.Server.JoinRateLimit, time.Minute, logger)

	// ── API v1 ──
	lc := r.Group("/api/v1/learning-circles")
	{
		// 学习圈
		lc.POST("/create", required, h.Circle.CreateCircle)
		lc.GET("/list", required, h.Circle.ListCircles)
		lc.GET("/info/:circle_id", optional, h.Circle.GetCircle)
		lc.PUT("/edit/:circle_id", required, h.Circle.UpdateCircle)
		lc.DELETE("/delete/:circle_id", required, h.Circle.DeleteCircle)
		lc.GET("/calendar/:circle_id", required, h.Calendar.CircleCalendar)

		// 聚会
		meeting := lc.Group("/meeting")
		{
			meeting.POST("/create/:circle_id", required, h.Meeting.CreateMeeting)
			meeting.GET("/list", optional, h.Meeting.BrowseMeetings)
			meeting.GET("/list/:circle_id", optional, h.Meeting.ListCircleMeetings)
			meeting.GET("/info/:meet_id", optional, h.Meeting.GetMeeting)
			meeting.PUT("/edit/:meet_id", required, h.Meeting.UpdateMeeting)
			meeting.DELETE("/delete/:meet_id", required, h.Meeting.DeleteMeeting)

			// 参与
			meeting.POST("/join/:meet_id", required, joinLimit, h.Attendance.JoinMeeting)
			meeting.DELETE("/leave/:meet_id", required, h.Attendance.LeaveMeeting)

			// 报告
			meeting.GET("/attendee-report/:meet_id", required, h.Report.GetAttendeeReport)
			meeting.POST("/attendee-report/:meet_id", required, h.Report.SubmitAttendeeReport)
			meeting.DELETE("/attendee-report/:meet_id", required, h.Report.WithdrawAttendeeReport)
			meeting.GET("/report/:meet_id", required, h.Report.GetReport)
			meeting.POST("/report/:meet_id", required, h.Report.SubmitReport)
			meeting.DELETE("/report/:meet_id", required, h.Report.DeleteReport)

			meeting.GET("/export/:meet_id", required, h.Export.ExportMeetingReport)
		}
	}

	return r
}
