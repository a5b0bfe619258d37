package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"learning-circle/backend/config"
	"learning-circle/backend/internal/dto"
	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
	apperrors "learning-circle/backend/pkg/errors"
)

// ── 聚会模块业务错误 ──

var (
	ErrMeetingNotFound     = apperrors.NotFound("聚会不存在")
	ErrMeetingNotOrganizer = apperrors.Permission("仅聚会组织者可执行此操作")
	ErrMeetingOpenExists   = apperrors.Conflict("该学习圈已有未完成的聚会")
	ErrBrowseFilterClash   = apperrors.Validation("saved 与 participated 不能同时指定")
	ErrBrowseNeedsLogin    = apperrors.Permission("查看收藏或参与记录需要登录")
)

const categoryAll = "all"

// MeetingService 聚会业务接口
type MeetingService interface {
	Create(ctx context.Context, circleID string, req *dto.CreateMeetingRequest, organizerID string) (*dto.MeetingDetailResponse, error)
	Get(ctx context.Context, meetID, viewerID string) (*dto.MeetingDetailResponse, error)
	ListByCircle(ctx context.Context, circleID, viewerID string) ([]dto.MeetingResponse, error)
	// Browse viewerID 为空表示匿名浏览
	Browse(ctx context.Context, query *dto.BrowseMeetingsQuery, viewerID string) ([]dto.MeetingResponse, error)
	Update(ctx context.Context, meetID string, req *dto.UpdateMeetingRequest, editorID string) (*dto.MeetingResponse, error)
	Delete(ctx context.Context, meetID, requesterID string) error
}

type meetingService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewMeetingService 创建 MeetingService 实例
func NewMeetingService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) MeetingService {
	return &meetingService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *meetingService) Create(ctx context.Context, circleID string, req *dto.CreateMeetingRequest, organizerID string) (*dto.MeetingDetailResponse, error) {
	circle, err := s.repo.Circle.GetByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCircleNotFound
		}
		s.logger.Error("查询学习圈失败", zap.String("circle_id", circleID), zap.Error(err))
		return nil, err
	}

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	meeting := &model.CircleMeeting{
		CircleID:          circle.ID,
		Title:             req.Title,
		Description:       trimmedOrNil(req.Description),
		Mode:              req.Mode,
		MeetLink:          trimmedOrNil(req.MeetLink),
		IsReportNeeded:    true,
		ReportDescription: trimmedOrNil(req.ReportDescription),
		CoordX:            req.CoordX,
		CoordY:            req.CoordY,
		MeetPlace:         req.MeetPlace,
		MeetTime:          req.MeetTime.UTC(),
		Duration:          req.Duration,
		CreatedBy:         organizerID,
	}
	if meeting.Mode == "" {
		meeting.Mode = model.MeetModeOffline
	}
	if req.IsReportNeeded != nil {
		meeting.IsReportNeeded = *req.IsReportNeeded
	}
	if err := validateMeeting(meeting); err != nil {
		return nil, err
	}

	if _, err := s.repo.Meeting.GetOpenByCircle(ctx, circle.ID); err == nil {
		return nil, ErrMeetingOpenExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询未完成聚会失败", zap.String("circle_id", circle.ID), zap.Error(err))
		return nil, err
	}

	code, err := generateMeetCode(s.cfg.Meeting.CodeLength)
	if err != nil {
		s.logger.Error("生成加入码失败", zap.Error(err))
		return nil, err
	}
	meeting.MeetCode = code

	now := s.now()
	organizer := &model.CircleMeetingAttendee{
		UserID:   organizerID,
		IsJoined: true,
		JoinedAt: &now,
	}

	err = withTx(ctx, s.repo, func(txRepo *repository.Repository) error {
		if err := txRepo.Meeting.Create(ctx, meeting); err != nil {
			return err
		}
		organizer.MeetID = meeting.ID
		return txRepo.Attendee.Create(ctx, organizer)
	})
	if err != nil {
		if repository.IsDuplicateKey(err, repository.ConstraintMeetingOpenCircle) {
			return nil, ErrMeetingOpenExists
		}
		s.logger.Error("创建聚会失败", zap.String("circle_id", circle.ID), zap.Error(err))
		return nil, err
	}

	meeting.Circle = circle
	resp := &dto.MeetingDetailResponse{
		MeetingResponse: toMeetingResponse(meeting, now, true),
		IsMember:        true,
		AttendeeState:   string(organizer.State(false)),
		Attendees:       []dto.AttendeeResponse{toAttendeeResponse(organizer, false)},
	}
	return resp, nil
}

// ────────────────────── Get ──────────────────────

func (s *meetingService) Get(ctx context.Context, meetID, viewerID string) (*dto.MeetingDetailResponse, error) {
	meeting, err := s.getMeeting(ctx, meetID)
	if err != nil {
		return nil, err
	}

	attendees, err := s.repo.Attendee.ListByMeet(ctx, meetID)
	if err != nil {
		s.logger.Error("查询参与者失败", zap.String("meet_id", meetID), zap.Error(err))
		return nil, err
	}

	isOrganizer := viewerID != "" && viewerID == meeting.CreatedBy
	resp := &dto.MeetingDetailResponse{
		MeetingResponse: toMeetingResponse(meeting, s.now(), isOrganizer),
		IsMember:        isOrganizer,
		AttendeeState:   string(model.AttendanceNone),
		Attendees:       make([]dto.AttendeeResponse, 0, len(attendees)),
	}
	for i := range attendees {
		a := &attendees[i]
		resp.Attendees = append(resp.Attendees, toAttendeeResponse(a, meeting.IsReportSubmitted))
		if viewerID != "" && a.UserID == viewerID {
			resp.AttendeeState = string(a.State(meeting.IsReportSubmitted))
		}
	}
	if viewerID == "" {
		resp.AttendeeState = ""
	}
	return resp, nil
}

// ────────────────────── ListByCircle ──────────────────────

func (s *meetingService) ListByCircle(ctx context.Context, circleID, viewerID string) ([]dto.MeetingResponse, error) {
	circle, err := s.repo.Circle.GetByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCircleNotFound
		}
		s.logger.Error("查询学习圈失败", zap.String("circle_id", circleID), zap.Error(err))
		return nil, err
	}

	meetings, err := s.repo.Meeting.ListByCircle(ctx, circleID)
	if err != nil {
		s.logger.Error("列出聚会失败", zap.String("circle_id", circleID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.MeetingResponse, 0, len(meetings))
	for i := range meetings {
		meetings[i].Circle = circle
		result = append(result, toMeetingResponse(&meetings[i], now, viewerID != "" && viewerID == meetings[i].CreatedBy))
	}
	return result, nil
}

// ────────────────────── Browse ──────────────────────

func (s *meetingService) Browse(ctx context.Context, query *dto.BrowseMeetingsQuery, viewerID string) ([]dto.MeetingResponse, error) {
	if query.Saved && query.Participated {
		return nil, ErrBrowseFilterClash
	}
	if (query.Saved || query.Participated) && viewerID == "" {
		return nil, ErrBrowseNeedsLogin
	}

	now := s.now()
	filter := repository.MeetingFilter{
		UserID:       viewerID,
		Saved:        query.Saved,
		Participated: query.Participated,
		Since:        now.Add(-s.cfg.Meeting.BrowseLookback),
	}

	category := strings.TrimSpace(query.Category)
	if query.Saved || query.Participated {
		// 收藏与参与列表不按类别过滤
		category = categoryAll
	}
	switch {
	case category != "" && !strings.EqualFold(category, categoryAll):
		filter.Categories = []string{category}
	case category == "" && viewerID != "":
		// 未指定类别时按用户兴趣偏好过滤
		cats, err := s.repo.Interest.ChosenCategories(ctx, viewerID)
		if err != nil {
			s.logger.Error("查询用户兴趣失败", zap.String("user_id", viewerID), zap.Error(err))
			return nil, err
		}
		filter.Categories = cats
	}

	meetings, err := s.repo.Meeting.Browse(ctx, filter)
	if err != nil {
		s.logger.Error("浏览聚会失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.MeetingResponse, 0, len(meetings))
	for i := range meetings {
		result = append(result, toMeetingResponse(&meetings[i], now, viewerID != "" && viewerID == meetings[i].CreatedBy))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *meetingService) Update(ctx context.Context, meetID string, req *dto.UpdateMeetingRequest, editorID string) (*dto.MeetingResponse, error) {
	meeting, err := s.getMeeting(ctx, meetID)
	if err != nil {
		return nil, err
	}
	if meeting.CreatedBy != editorID {
		return nil, ErrMeetingNotOrganizer
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	merged := *meeting
	if req.Title != nil {
		merged.Title = *req.Title
	}
	if req.Description != nil {
		merged.Description = trimmedOrNil(req.Description)
	}
	if req.Mode != nil {
		merged.Mode = *req.Mode
	}
	if req.MeetLink != nil {
		merged.MeetLink = trimmedOrNil(req.MeetLink)
	}
	if req.IsReportNeeded != nil {
		merged.IsReportNeeded = *req.IsReportNeeded
	}
	if req.ReportDescription != nil {
		merged.ReportDescription = trimmedOrNil(req.ReportDescription)
	}
	if req.CoordX != nil {
		merged.CoordX = *req.CoordX
	}
	if req.CoordY != nil {
		merged.CoordY = *req.CoordY
	}
	if req.MeetPlace != nil {
		merged.MeetPlace = *req.MeetPlace
	}
	if req.MeetTime != nil {
		merged.MeetTime = req.MeetTime.UTC()
	}
	if req.Duration != nil {
		merged.Duration = *req.Duration
	}

	if err := validateMeeting(&merged); err != nil {
		return nil, err
	}

	if err := s.repo.Meeting.Update(ctx, &merged); err != nil {
		s.logger.Error("更新聚会失败", zap.String("id", meetID), zap.Error(err))
		return nil, err
	}

	resp := toMeetingResponse(&merged, s.now(), true)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *meetingService) Delete(ctx context.Context, meetID, requesterID string) error {
	meeting, err := s.getMeeting(ctx, meetID)
	if err != nil {
		return err
	}
	if meeting.CreatedBy != requesterID {
		return ErrMeetingNotOrganizer
	}

	if err := s.repo.Meeting.Delete(ctx, meetID); err != nil {
		s.logger.Error("删除聚会失败", zap.String("id", meetID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *meetingService) getMeeting(ctx context.Context, meetID string) (*model.CircleMeeting, error) {
	return loadMeeting(ctx, s.repo, s.logger, meetID)
}

func loadMeeting(ctx context.Context, repo *repository.Repository, logger *zap.Logger, meetID string) (*model.CircleMeeting, error) {
	meeting, err := repo.Meeting.GetByID(ctx, meetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		logger.Error("查询聚会失败", zap.String("id", meetID), zap.Error(err))
		return nil, err
	}
	return meeting, nil
}

// validateMeeting 校验合并后的聚会记录
func validateMeeting(m *model.CircleMeeting) error {
	fields := map[string]string{}

	if strings.TrimSpace(m.Title) == "" {
		fields["title"] = "不能为空"
	}
	if strings.TrimSpace(m.MeetPlace) == "" {
		fields["meet_place"] = "不能为空"
	}
	if m.Duration < 1 {
		fields["duration"] = "不能少于 1 小时"
	}
	if m.IsReportNeeded && m.ReportDescription == nil {
		fields["report_description"] = "需要报告时必须填写报告说明"
	}

	switch m.Mode {
	case model.MeetModeOffline:
	case model.MeetModeOnline:
		if m.MeetLink == nil {
			fields["meet_link"] = "线上聚会必须提供会议链接"
		}
		if !isOnlineMeetPlace(m.MeetPlace) {
			fields["meet_place"] = "线上聚会平台必须为 " + strings.Join(model.OnlineMeetPlaces, " / ") + " 之一"
		}
	default:
		fields["mode"] = "取值必须为 offline 或 online"
	}

	if len(fields) > 0 {
		return apperrors.ValidationFields("聚会信息不合法", fields)
	}
	return nil
}

func isOnlineMeetPlace(place string) bool {
	for _, p := range model.OnlineMeetPlaces {
		if p == place {
			return true
		}
	}
	return false
}

func toMeetingResponse(m *model.CircleMeeting, now time.Time, withCode bool) dto.MeetingResponse {
	resp := dto.MeetingResponse{
		ID:                m.ID,
		CircleID:          m.CircleID,
		Title:             m.Title,
		Description:       m.Description,
		Mode:              m.Mode,
		MeetLink:          m.MeetLink,
		MeetPlace:         m.MeetPlace,
		CoordX:            m.CoordX,
		CoordY:            m.CoordY,
		MeetTime:          formatTime(m.MeetTime),
		Duration:          m.Duration,
		IsReportNeeded:    m.IsReportNeeded,
		ReportDescription: m.ReportDescription,
		IsReportSubmitted: m.IsReportSubmitted,
		IsApproved:        m.IsApproved,
		IsStarted:         m.IsStarted(now),
		IsEnded:           m.IsEnded(now),
		CreatedBy:         m.CreatedBy,
	}
	if m.Circle != nil {
		resp.CircleTitle = m.Circle.Title
		if m.Circle.InterestGroup != nil {
			resp.Category = m.Circle.InterestGroup.Category
		}
	}
	if withCode {
		resp.MeetCode = m.MeetCode
	}
	return resp
}

func toAttendeeResponse(a *model.CircleMeetingAttendee, aggregateSubmitted bool) dto.AttendeeResponse {
	resp := dto.AttendeeResponse{
		UserID:            a.UserID,
		IsJoined:          a.IsJoined,
		IsReportSubmitted: a.IsReportSubmitted,
		IsLcApproved:      a.IsLcApproved,
		State:             string(a.State(aggregateSubmitted)),
	}
	if a.JoinedAt != nil {
		resp.JoinedAt = formatTime(*a.JoinedAt)
	}
	if a.User != nil {
		resp.FullName = a.User.FullName
		resp.Muid = a.User.Muid
		resp.ProfilePic = a.User.ProfilePic
	}
	return resp
}
