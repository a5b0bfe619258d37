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

// ── 学习圈模块业务错误 ──

var (
	ErrCircleNotFound       = apperrors.NotFound("学习圈不存在")
	ErrCircleNotOwner       = apperrors.Permission("仅学习圈创建者可执行此操作")
	ErrInterestGroupUnknown = apperrors.Validation("兴趣组不存在")
)

// CircleService 学习圈业务接口
type CircleService interface {
	Create(ctx context.Context, req *dto.CreateCircleRequest, ownerID string) (*dto.CircleResponse, error)
	Get(ctx context.Context, circleID, viewerID string) (*dto.CircleDetailResponse, error)
	List(ctx context.Context, ownerID string) ([]dto.CircleResponse, error)
	Update(ctx context.Context, circleID string, req *dto.UpdateCircleRequest, editorID string) (*dto.CircleResponse, error)
	Delete(ctx context.Context, circleID, requesterID string) error
}

type circleService struct {
	cfg    *config.Config
	repo   *repository.Repository
	karma  KarmaService
	logger *zap.Logger
	now    func() time.Time
}

// NewCircleService 创建 CircleService 实例
func NewCircleService(cfg *config.Config, repo *repository.Repository, karma KarmaService, logger *zap.Logger) CircleService {
	return &circleService{cfg: cfg, repo: repo, karma: karma, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *circleService) Create(ctx context.Context, req *dto.CreateCircleRequest, ownerID string) (*dto.CircleResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	recurrenceType, recurrence, err := normalizeRecurrence(req.IsRecurring, req.RecurrenceType, req.Recurrence)
	if err != nil {
		return nil, err
	}

	ig, err := s.repo.Interest.GetGroupByID(ctx, req.IgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInterestGroupUnknown
		}
		s.logger.Error("查询兴趣组失败", zap.String("ig_id", req.IgID), zap.Error(err))
		return nil, err
	}

	circle := &model.LearningCircle{
		IgID:           ig.ID,
		OrgID:          trimmedOrNil(req.OrgID),
		Title:          req.Title,
		Description:    req.Description,
		Note:           trimmedOrNil(req.Note),
		IsRecurring:    req.IsRecurring,
		RecurrenceType: recurrenceType,
		Recurrence:     recurrence,
		CreatedBy:      ownerID,
	}

	if err := s.repo.Circle.Create(ctx, circle); err != nil {
		s.logger.Error("创建学习圈失败", zap.Error(err))
		return nil, err
	}
	circle.InterestGroup = ig

	act := s.cfg.Karma.CircleCreate
	if !s.karma.AddKarma(ctx, []string{ownerID}, act.Hashtag, ownerID, &act.Amount) {
		s.logger.Warn("创建学习圈的 karma 未发放",
			zap.String("circle_id", circle.ID), zap.String("user_id", ownerID))
	}

	return s.toCircleResponse(circle, nil), nil
}

// ────────────────────── Get ──────────────────────

func (s *circleService) Get(ctx context.Context, circleID, viewerID string) (*dto.CircleDetailResponse, error) {
	circle, err := s.getCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}

	next, err := s.nextMeetup(ctx, circle)
	if err != nil {
		return nil, err
	}

	past, err := s.repo.Meeting.ListReportedByCircle(ctx, circleID)
	if err != nil {
		s.logger.Error("查询历史聚会失败", zap.String("circle_id", circleID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	pastResp := make([]dto.MeetingResponse, 0, len(past))
	for i := range past {
		past[i].Circle = circle
		pastResp = append(pastResp, toMeetingResponse(&past[i], now, false))
	}

	return &dto.CircleDetailResponse{
		CircleResponse: *s.toCircleResponse(circle, next),
		IsOwner:        viewerID != "" && viewerID == circle.CreatedBy,
		PastMeetups:    pastResp,
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *circleService) List(ctx context.Context, ownerID string) ([]dto.CircleResponse, error) {
	circles, err := s.repo.Circle.ListByCreator(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出学习圈失败", zap.String("owner", ownerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CircleResponse, 0, len(circles))
	for i := range circles {
		next, err := s.nextMeetup(ctx, &circles[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *s.toCircleResponse(&circles[i], next))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *circleService) Update(ctx context.Context, circleID string, req *dto.UpdateCircleRequest, editorID string) (*dto.CircleResponse, error) {
	circle, err := s.getCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if circle.CreatedBy != editorID {
		return nil, ErrCircleNotOwner
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// 在副本上合并并校验，校验失败不修改原记录
	merged := *circle
	if req.Title != nil {
		merged.Title = *req.Title
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.Note != nil {
		merged.Note = trimmedOrNil(req.Note)
	}
	if req.IsRecurring != nil {
		merged.IsRecurring = *req.IsRecurring
	}
	if req.RecurrenceType != nil {
		merged.RecurrenceType = req.RecurrenceType
	}
	if req.Recurrence != nil {
		merged.Recurrence = req.Recurrence
	}

	merged.RecurrenceType, merged.Recurrence, err = normalizeRecurrence(merged.IsRecurring, merged.RecurrenceType, merged.Recurrence)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Circle.Update(ctx, &merged); err != nil {
		s.logger.Error("更新学习圈失败", zap.String("id", circleID), zap.Error(err))
		return nil, err
	}

	next, err := s.nextMeetup(ctx, &merged)
	if err != nil {
		return nil, err
	}
	return s.toCircleResponse(&merged, next), nil
}

// ────────────────────── Delete ──────────────────────

func (s *circleService) Delete(ctx context.Context, circleID, requesterID string) error {
	circle, err := s.getCircle(ctx, circleID)
	if err != nil {
		return err
	}
	if circle.CreatedBy != requesterID {
		return ErrCircleNotOwner
	}

	if err := s.repo.Circle.Delete(ctx, circleID); err != nil {
		s.logger.Error("删除学习圈失败", zap.String("id", circleID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *circleService) getCircle(ctx context.Context, circleID string) (*model.LearningCircle, error) {
	circle, err := s.repo.Circle.GetByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCircleNotFound
		}
		s.logger.Error("查询学习圈失败", zap.String("id", circleID), zap.Error(err))
		return nil, err
	}
	return circle, nil
}

// nextMeetup 优先返回未完成的聚会；否则对重复学习圈按规则推算日期
func (s *circleService) nextMeetup(ctx context.Context, circle *model.LearningCircle) (*dto.NextMeetupResponse, error) {
	open, err := s.repo.Meeting.GetOpenByCircle(ctx, circle.ID)
	switch {
	case err == nil:
		return &dto.NextMeetupResponse{
			ID:          open.ID,
			Title:       open.Title,
			MeetTime:    formatTime(open.MeetTime),
			IsScheduled: true,
		}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询未完成聚会失败", zap.String("circle_id", circle.ID), zap.Error(err))
		return nil, err
	}

	if !circle.IsRecurring || circle.RecurrenceType == nil || circle.Recurrence == nil {
		return nil, nil
	}
	date := NextMeetupDate(*circle.RecurrenceType, *circle.Recurrence, s.now())
	if date.IsZero() {
		return nil, nil
	}
	return &dto.NextMeetupResponse{
		MeetTime:    date.Format("2006-01-02"),
		IsScheduled: false,
	}, nil
}

func (s *circleService) toCircleResponse(c *model.LearningCircle, next *dto.NextMeetupResponse) *dto.CircleResponse {
	resp := &dto.CircleResponse{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Note:           c.Note,
		IgID:           c.IgID,
		OrgID:          c.OrgID,
		IsRecurring:    c.IsRecurring,
		RecurrenceType: c.RecurrenceType,
		Recurrence:     c.Recurrence,
		CreatedBy:      c.CreatedBy,
		CreatedAt:      formatTime(c.CreatedAt),
		UpdatedAt:      formatTime(c.UpdatedAt),
		NextMeetup:     next,
	}
	if c.InterestGroup != nil {
		resp.IgName = c.InterestGroup.Name
		resp.Category = c.InterestGroup.Category
	}
	return resp
}

// normalizeRecurrence 校验重复规则；非重复学习圈清空类型与取值
func normalizeRecurrence(isRecurring bool, recurrenceType *string, recurrence *int) (*string, *int, error) {
	if !isRecurring {
		return nil, nil, nil
	}

	fields := map[string]string{}
	if recurrenceType == nil {
		fields["recurrence_type"] = "重复学习圈必须指定重复类型"
	} else if *recurrenceType != model.RecurrenceWeekly && *recurrenceType != model.RecurrenceMonthly {
		fields["recurrence_type"] = "取值必须为 weekly 或 monthly"
	}
	if recurrence == nil {
		fields["recurrence"] = "重复学习圈必须指定重复日"
	}
	if len(fields) == 0 {
		switch *recurrenceType {
		case model.RecurrenceWeekly:
			if *recurrence < 1 || *recurrence > 7 {
				fields["recurrence"] = "每周重复的取值范围为 1-7"
			}
		case model.RecurrenceMonthly:
			if *recurrence < 1 || *recurrence > 28 {
				fields["recurrence"] = "每月重复的取值范围为 1-28"
			}
		}
	}
	if len(fields) > 0 {
		return nil, nil, apperrors.ValidationFields("重复规则不合法", fields)
	}

	rt, rv := *recurrenceType, *recurrence
	return &rt, &rv, nil
}
