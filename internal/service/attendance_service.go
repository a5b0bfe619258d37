package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"learning-circle/backend/config"
	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
	apperrors "learning-circle/backend/pkg/errors"
)

// ── 参与模块业务错误 ──

var (
	ErrAttendeeNotFound    = apperrors.NotFound("未找到该用户的参与记录")
	ErrJoinWindowClosed    = apperrors.Conflict("聚会已结束，无法加入")
	ErrJoinCodeInvalid     = apperrors.Validation("加入码错误")
	ErrJoinCodeLocked      = apperrors.Validation("加入码错误次数过多，请稍后再试")
	ErrAlreadyJoined       = apperrors.Conflict("已加入该聚会")
	ErrAlreadySaved        = apperrors.Conflict("已收藏该聚会")
	ErrLeaveAfterReporting = apperrors.Conflict("已提交报告，无法退出")
)

// AttendanceService 聚会参与业务接口
type AttendanceService interface {
	// Join 开始前收藏（SAVED），开始后凭加入码签到（JOINED）
	Join(ctx context.Context, meetID, userID, code string) (*dto.JoinMeetingResponse, error)
	Leave(ctx context.Context, meetID, userID string) error
}

type attendanceService struct {
	cfg     *config.Config
	repo    *repository.Repository
	karma   KarmaService
	limiter JoinAttemptLimiter
	logger  *zap.Logger
	now     func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例；limiter 可为 nil
func NewAttendanceService(cfg *config.Config, repo *repository.Repository, karma KarmaService, limiter JoinAttemptLimiter, logger *zap.Logger) AttendanceService {
	return &attendanceService{cfg: cfg, repo: repo, karma: karma, limiter: limiter, logger: logger, now: time.Now}
}

// ────────────────────── Join ──────────────────────

func (s *attendanceService) Join(ctx context.Context, meetID, userID, code string) (*dto.JoinMeetingResponse, error) {
	meeting, err := loadMeeting(ctx, s.repo, s.logger, meetID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !now.Before(meeting.JoinClosesAt(s.cfg.Meeting.JoinGraceHours)) {
		return nil, ErrJoinWindowClosed
	}

	started := meeting.IsStarted(now)
	if started {
		if err := s.checkCode(ctx, meeting, userID, code); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.Attendee.GetByMeetAndUser(ctx, meetID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询参与记录失败", zap.String("meet_id", meetID), zap.Error(err))
		return nil, err
	}

	joined := false
	if existing != nil {
		if existing.IsJoined {
			return nil, ErrAlreadyJoined
		}
		if !started {
			return nil, ErrAlreadySaved
		}
		ok, err := s.repo.Attendee.MarkJoined(ctx, existing.ID, now)
		if err != nil {
			s.logger.Error("更新参与记录失败", zap.String("id", existing.ID), zap.Error(err))
			return nil, err
		}
		if !ok {
			// 并发请求已先一步完成签到
			return nil, ErrAlreadyJoined
		}
		joined = true
	} else {
		attendee := &model.CircleMeetingAttendee{
			MeetID:   meetID,
			UserID:   userID,
			IsJoined: started,
		}
		if started {
			attendee.JoinedAt = &now
		}
		if err := s.repo.Attendee.Create(ctx, attendee); err != nil {
			if repository.IsDuplicateKey(err, repository.ConstraintAttendeeMeetUser) {
				if started {
					return nil, ErrAlreadyJoined
				}
				return nil, ErrAlreadySaved
			}
			s.logger.Error("创建参与记录失败", zap.String("meet_id", meetID), zap.Error(err))
			return nil, err
		}
		joined = started
	}

	resp := &dto.JoinMeetingResponse{MeetID: meetID, State: string(model.AttendanceSaved)}
	if !joined {
		return resp, nil
	}

	s.resetAttempts(ctx, meetID, userID)

	act := s.cfg.Karma.MeetJoin
	if !s.karma.AddKarma(ctx, []string{userID}, act.Hashtag, userID, &act.Amount) {
		s.logger.Warn("加入聚会的 karma 未发放",
			zap.String("meet_id", meetID), zap.String("user_id", userID))
	}

	resp.State = string(model.AttendanceJoined)
	resp.JoinedAt = formatTime(now)
	return resp, nil
}

// ────────────────────── Leave ──────────────────────

func (s *attendanceService) Leave(ctx context.Context, meetID, userID string) error {
	attendee, err := s.repo.Attendee.GetByMeetAndUser(ctx, meetID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttendeeNotFound
		}
		s.logger.Error("查询参与记录失败", zap.String("meet_id", meetID), zap.Error(err))
		return err
	}
	if attendee.IsReportSubmitted {
		return ErrLeaveAfterReporting
	}

	if err := s.repo.Attendee.Delete(ctx, attendee.ID); err != nil {
		s.logger.Error("删除参与记录失败", zap.String("id", attendee.ID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// checkCode 校验加入码（区分大小写）；Redis 可用时限制错误次数
func (s *attendanceService) checkCode(ctx context.Context, meeting *model.CircleMeeting, userID, code string) error {
	maxAttempts := s.cfg.Meeting.MaxCodeAttempts

	if s.limiter != nil && maxAttempts > 0 {
		n, err := s.limiter.JoinAttempts(ctx, meeting.ID, userID)
		if err != nil {
			// 计数不可用时降级为不限次数
			s.logger.Warn("读取加入码错误次数失败", zap.Error(err))
		} else if n >= maxAttempts {
			return ErrJoinCodeLocked
		}
	}

	if code == meeting.MeetCode {
		return nil
	}

	if s.limiter != nil && maxAttempts > 0 {
		if _, err := s.limiter.RecordFailedJoin(ctx, meeting.ID, userID, s.cfg.Meeting.CodeAttemptTTL); err != nil {
			s.logger.Warn("记录加入码错误次数失败", zap.Error(err))
		}
	}
	return ErrJoinCodeInvalid
}

func (s *attendanceService) resetAttempts(ctx context.Context, meetID, userID string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.ResetJoinAttempts(ctx, meetID, userID); err != nil {
		s.logger.Warn("清除加入码错误次数失败", zap.Error(err))
	}
}
