package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"learning-circle/backend/config"
	"learning-circle/backend/internal/repository"
)

// JoinAttemptLimiter 加入码错误次数统计；Redis 不可用时传 nil
type JoinAttemptLimiter interface {
	JoinAttempts(ctx context.Context, meetID, userID string) (int, error)
	RecordFailedJoin(ctx context.Context, meetID, userID string, window time.Duration) (int, error)
	ResetJoinAttempts(ctx context.Context, meetID, userID string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Karma      KarmaService
	Circle     CircleService
	Meeting    MeetingService
	Attendance AttendanceService
	Report     ReportService
	Calendar   CalendarService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	limiter JoinAttemptLimiter,
	logger *zap.Logger,
) *Service {
	karma := NewKarmaService(repo, logger)
	return &Service{
		Karma:      karma,
		Circle:     NewCircleService(cfg, repo, karma, logger),
		Meeting:    NewMeetingService(cfg, repo, logger),
		Attendance: NewAttendanceService(cfg, repo, karma, limiter, logger),
		Report:     NewReportService(cfg, repo, karma, logger),
		Calendar:   NewCalendarService(repo, logger),
		Export:     NewExportService(repo, logger),
	}
}

// withTx 在事务中执行 fn；Repository 由 mock 组装时 BeginTx 返回 nil，直接执行
func withTx(ctx context.Context, repo *repository.Repository, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
