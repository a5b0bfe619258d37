package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"learning-circle/backend/config"
	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
	apperrors "learning-circle/backend/pkg/errors"
)

// ── 报告模块业务错误 ──

var (
	ErrReportNotJoined        = apperrors.Conflict("尚未签到，无法提交报告")
	ErrReportAlreadySubmitted = apperrors.Conflict("报告已提交")
	ErrReportEmpty            = apperrors.ValidationFields("报告内容不能为空", map[string]string{"report_text": "文本与链接至少填写一项"})
	ErrReportNotSubmitted     = apperrors.Conflict("报告尚未提交")
	ErrAttendeeReportMissing  = apperrors.NotFound("尚未提交个人报告")
	ErrReportLocked           = apperrors.Conflict("组织者已提交汇总报告，无法撤回")
	ErrReportApproved         = apperrors.Conflict("汇总报告已审核通过，无法删除")
	ErrReportDecisionInvalid  = apperrors.Conflict("存在未签到或未提交报告的参与者")
	ErrReportReopenBlocked    = apperrors.Conflict("该学习圈已有未完成的聚会，无法删除汇总报告")
)

// ReportService 报告流程业务接口
type ReportService interface {
	SubmitAttendeeReport(ctx context.Context, meetID, userID string, req *dto.AttendeeReportRequest) (*dto.AttendeeReportResponse, error)
	GetAttendeeReport(ctx context.Context, meetID, userID string) (*dto.AttendeeReportResponse, error)
	WithdrawAttendeeReport(ctx context.Context, meetID, userID string) error
	// SubmitReport 组织者提交汇总报告并对参与者报告逐一审批
	SubmitReport(ctx context.Context, meetID, organizerID string, req *dto.CircleReportRequest) (*dto.CircleReportResponse, error)
	GetReport(ctx context.Context, meetID, organizerID string) (*dto.CircleReportResponse, error)
	DeleteReport(ctx context.Context, meetID, organizerID string) error
}

type reportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	karma  KarmaService
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.Config, repo *repository.Repository, karma KarmaService, logger *zap.Logger) ReportService {
	return &reportService{cfg: cfg, repo: repo, karma: karma, logger: logger}
}

// ════════════════════════ 参与者个人报告 ════════════════════════

func (s *reportService) SubmitAttendeeReport(ctx context.Context, meetID, userID string, req *dto.AttendeeReportRequest) (*dto.AttendeeReportResponse, error) {
	meeting, err := loadMeeting(ctx, s.repo, s.logger, meetID)
	if err != nil {
		return nil, err
	}
	attendee, err := s.getAttendee(ctx, meetID, userID)
	if err != nil {
		return nil, err
	}
	if !attendee.IsJoined {
		return nil, ErrReportNotJoined
	}
	if attendee.IsReportSubmitted {
		return nil, ErrReportAlreadySubmitted
	}

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	text, link := trimmedOrNil(req.ReportText), trimmedOrNil(req.ReportLink)
	if text == nil && link == nil {
		return nil, ErrReportEmpty
	}

	if err := s.repo.Attendee.UpdateReport(ctx, attendee.ID, text, link, true); err != nil {
		s.logger.Error("提交个人报告失败", zap.String("id", attendee.ID), zap.Error(err))
		return nil, err
	}
	attendee.ReportText, attendee.ReportLink, attendee.IsReportSubmitted = text, link, true

	act := s.cfg.Karma.AttendeeReport
	if !s.karma.AddKarma(ctx, []string{userID}, act.Hashtag, userID, &act.Amount) {
		s.logger.Warn("个人报告的 karma 未发放",
			zap.String("meet_id", meetID), zap.String("user_id", userID))
	}

	return toAttendeeReportResponse(attendee, meeting.IsReportSubmitted), nil
}

func (s *reportService) GetAttendeeReport(ctx context.Context, meetID, userID string) (*dto.AttendeeReportResponse, error) {
	meeting, err := loadMeeting(ctx, s.repo, s.logger, meetID)
	if err != nil {
		return nil, err
	}
	attendee, err := s.getAttendee(ctx, meetID, userID)
	if err != nil {
		return nil, err
	}
	if !attendee.IsJoined {
		return nil, ErrReportNotJoined
	}
	if !attendee.IsReportSubmitted {
		return nil, ErrAttendeeReportMissing
	}
	return toAttendeeReportResponse(attendee, meeting.IsReportSubmitted), nil
}

func (s *reportService) WithdrawAttendeeReport(ctx context.Context, meetID, userID string) error {
	meeting, err := loadMeeting(ctx, s.repo, s.logger, meetID)
	if err != nil {
		return err
	}
	attendee, err := s.getAttendee(ctx, meetID, userID)
	if err != nil {
		return err
	}
	if !attendee.IsReportSubmitted {
		return ErrReportNotSubmitted
	}
	if meeting.IsReportSubmitted {
		return ErrReportLocked
	}

	if err := s.repo.Attendee.UpdateReport(ctx, attendee.ID, nil, nil, false); err != nil {
		s.logger.Error("撤回个人报告失败", zap.String("id", attendee.ID), zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════ 组织者汇总报告 ════════════════════════

func (s *reportService) SubmitReport(ctx context.Context, meetID, organizerID string, req *dto.CircleReportRequest) (*dto.CircleReportResponse, error) {
	meeting, err := s.organizerMeeting(ctx, meetID, organizerID)
	if err != nil {
		return nil, err
	}
	if meeting.IsReportSubmitted {
		return nil, ErrReportAlreadySubmitted
	}

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.ReportText)
	if text == "" {
		return nil, apperrors.ValidationFields("请求参数不合法", map[string]string{"report_text": "不能为空"})
	}

	var approved, rejected []string
	for userID, ok := range req.Attendees {
		if ok {
			approved = append(approved, userID)
		} else {
			rejected = append(rejected, userID)
		}
	}
	sort.Strings(approved)
	sort.Strings(rejected)

	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		attendees, err := txRepo.Attendee.ListByMeet(ctx, meetID)
		if err != nil {
			return err
		}
		byUser := make(map[string]*model.CircleMeetingAttendee, len(attendees))
		for i := range attendees {
			byUser[attendees[i].UserID] = &attendees[i]
		}

		// 先校验全部决定，再写入
		invalid := map[string]string{}
		for userID := range req.Attendees {
			a, ok := byUser[userID]
			switch {
			case !ok:
				invalid[userID] = "不是该聚会的参与者"
			case !a.IsJoined:
				invalid[userID] = "尚未签到"
			case !a.IsReportSubmitted:
				invalid[userID] = "尚未提交个人报告"
			}
		}
		if len(invalid) > 0 {
			return &apperrors.AppError{Kind: apperrors.KindConflict, Message: ErrReportDecisionInvalid.Message, Fields: invalid}
		}

		if err := txRepo.Attendee.SetApproval(ctx, meetID, approved, true); err != nil {
			return err
		}
		if err := txRepo.Attendee.SetApproval(ctx, meetID, rejected, false); err != nil {
			return err
		}

		ok, err := txRepo.Meeting.MarkReportSubmitted(ctx, meetID, text)
		if err != nil {
			return err
		}
		if !ok {
			return ErrReportAlreadySubmitted
		}
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == 0 {
			s.logger.Error("提交汇总报告失败", zap.String("meet_id", meetID), zap.Error(err))
		}
		return nil, err
	}

	if len(approved) > 0 {
		act := s.cfg.Karma.CircleReport
		if !s.karma.AddKarma(ctx, approved, act.Hashtag, organizerID, &act.Amount) {
			s.logger.Warn("汇总报告的 karma 未发放",
				zap.String("meet_id", meetID), zap.Strings("user_ids", approved))
		}
	}

	return s.GetReport(ctx, meetID, organizerID)
}

func (s *reportService) GetReport(ctx context.Context, meetID, organizerID string) (*dto.CircleReportResponse, error) {
	meeting, err := s.organizerMeeting(ctx, meetID, organizerID)
	if err != nil {
		return nil, err
	}

	attendees, err := s.repo.Attendee.ListByMeet(ctx, meetID)
	if err != nil {
		s.logger.Error("查询参与者失败", zap.String("meet_id", meetID), zap.Error(err))
		return nil, err
	}

	resp := &dto.CircleReportResponse{
		MeetID:            meeting.ID,
		ReportText:        meeting.ReportText,
		IsReportSubmitted: meeting.IsReportSubmitted,
		IsApproved:        meeting.IsApproved,
		Attendees:         make([]dto.AttendeeResponse, 0, len(attendees)),
	}
	for i := range attendees {
		if !attendees[i].IsJoined {
			continue
		}
		resp.Attendees = append(resp.Attendees, toAttendeeResponse(&attendees[i], meeting.IsReportSubmitted))
	}
	return resp, nil
}

func (s *reportService) DeleteReport(ctx context.Context, meetID, organizerID string) error {
	meeting, err := s.organizerMeeting(ctx, meetID, organizerID)
	if err != nil {
		return err
	}
	if !meeting.IsReportSubmitted {
		return ErrReportNotSubmitted
	}
	if meeting.IsApproved {
		return ErrReportApproved
	}

	// 删除后聚会重新变为未完成状态，同一学习圈只允许一个
	if _, err := s.repo.Meeting.GetOpenByCircle(ctx, meeting.CircleID); err == nil {
		return ErrReportReopenBlocked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询未完成聚会失败", zap.String("circle_id", meeting.CircleID), zap.Error(err))
		return err
	}

	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Attendee.ResetApprovals(ctx, meetID); err != nil {
			return err
		}
		return txRepo.Meeting.ClearReport(ctx, meetID)
	})
	if err != nil {
		if repository.IsDuplicateKey(err, repository.ConstraintMeetingOpenCircle) {
			return ErrReportReopenBlocked
		}
		s.logger.Error("删除汇总报告失败", zap.String("meet_id", meetID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *reportService) getAttendee(ctx context.Context, meetID, userID string) (*model.CircleMeetingAttendee, error) {
	attendee, err := s.repo.Attendee.GetByMeetAndUser(ctx, meetID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendeeNotFound
		}
		s.logger.Error("查询参与记录失败", zap.String("meet_id", meetID), zap.Error(err))
		return nil, err
	}
	return attendee, nil
}

func (s *reportService) organizerMeeting(ctx context.Context, meetID, organizerID string) (*model.CircleMeeting, error) {
	meeting, err := loadMeeting(ctx, s.repo, s.logger, meetID)
	if err != nil {
		return nil, err
	}
	if meeting.CreatedBy != organizerID {
		return nil, ErrMeetingNotOrganizer
	}
	return meeting, nil
}

func toAttendeeReportResponse(a *model.CircleMeetingAttendee, aggregateSubmitted bool) *dto.AttendeeReportResponse {
	return &dto.AttendeeReportResponse{
		MeetID:            a.MeetID,
		UserID:            a.UserID,
		ReportText:        a.ReportText,
		ReportLink:        a.ReportLink,
		IsReportSubmitted: a.IsReportSubmitted,
		IsLcApproved:      a.IsLcApproved,
		State:             string(a.State(aggregateSubmitted)),
	}
}
