package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"learning-circle/backend/internal/model"
)

// MeetingFilter 聚会浏览条件
type MeetingFilter struct {
	Categories   []string  // 为空表示不限类别
	UserID       string    // 浏览者，可为空
	Saved        bool      // 仅浏览者收藏（未加入）的聚会
	Participated bool      // 仅浏览者已加入的聚会
	Since        time.Time // 默认视图的开始时间下限
}

// MeetingRepository 学习圈聚会数据访问接口
type MeetingRepository interface {
	Create(ctx context.Context, meeting *model.CircleMeeting) error
	GetByID(ctx context.Context, id string) (*model.CircleMeeting, error)
	// GetOpenByCircle 返回学习圈中尚未提交汇总报告的聚会（按开始时间取最新）
	GetOpenByCircle(ctx context.Context, circleID string) (*model.CircleMeeting, error)
	ListByCircle(ctx context.Context, circleID string) ([]model.CircleMeeting, error)
	ListReportedByCircle(ctx context.Context, circleID string) ([]model.CircleMeeting, error)
	Browse(ctx context.Context, filter MeetingFilter) ([]model.CircleMeeting, error)
	Update(ctx context.Context, meeting *model.CircleMeeting) error
	// MarkReportSubmitted 条件更新 is_report_submitted=false 的聚会；返回是否命中
	MarkReportSubmitted(ctx context.Context, id, reportText string) (bool, error)
	ClearReport(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// meetingRepo MeetingRepository 的 GORM 实现
type meetingRepo struct {
	db *gorm.DB
}

// NewMeetingRepo 创建 MeetingRepository 实例
func NewMeetingRepo(db *gorm.DB) MeetingRepository {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) Create(ctx context.Context, meeting *model.CircleMeeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

func (r *meetingRepo) GetByID(ctx context.Context, id string) (*model.CircleMeeting, error) {
	var meeting model.CircleMeeting
	err := r.db.WithContext(ctx).
		Preload("Circle").
		Preload("Circle.InterestGroup").
		Where("id = ?", id).
		First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) GetOpenByCircle(ctx context.Context, circleID string) (*model.CircleMeeting, error) {
	var meeting model.CircleMeeting
	err := r.db.WithContext(ctx).
		Where("circle_id = ? AND is_report_submitted = ?", circleID, false).
		Order("meet_time DESC").
		First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) ListByCircle(ctx context.Context, circleID string) ([]model.CircleMeeting, error) {
	var meetings []model.CircleMeeting
	err := r.db.WithContext(ctx).
		Where("circle_id = ?", circleID).
		Order("meet_time DESC").
		Find(&meetings).Error
	return meetings, err
}

func (r *meetingRepo) ListReportedByCircle(ctx context.Context, circleID string) ([]model.CircleMeeting, error) {
	var meetings []model.CircleMeeting
	err := r.db.WithContext(ctx).
		Where("circle_id = ? AND is_report_submitted = ?", circleID, true).
		Order("meet_time DESC").
		Find(&meetings).Error
	return meetings, err
}

const attendeeExists = "EXISTS (SELECT 1 FROM circle_meeting_attendees a WHERE a.meet_id = circle_meeting_logs.id AND a.user_id = ?"

func (r *meetingRepo) Browse(ctx context.Context, filter MeetingFilter) ([]model.CircleMeeting, error) {
	q := r.db.WithContext(ctx).
		Model(&model.CircleMeeting{}).
		Select("circle_meeting_logs.*").
		Joins("JOIN learning_circles lc ON lc.id = circle_meeting_logs.circle_id").
		Joins("JOIN interest_groups ig ON ig.id = lc.ig_id")

	if len(filter.Categories) > 0 {
		q = q.Where("ig.category IN ?", filter.Categories)
	}

	switch {
	case filter.Saved:
		q = q.Where(attendeeExists+" AND a.is_joined = ?)", filter.UserID, false)
	case filter.Participated:
		q = q.Where(attendeeExists+" AND a.is_joined = ?)", filter.UserID, true)
	case filter.UserID != "":
		// 近期聚会，或浏览者尚未提交报告的聚会
		q = q.Where("(circle_meeting_logs.meet_time >= ? OR "+attendeeExists+" AND a.is_report_submitted = ?))",
			filter.Since, filter.UserID, false)
	default:
		q = q.Where("circle_meeting_logs.meet_time >= ?", filter.Since)
	}

	var meetings []model.CircleMeeting
	err := q.
		Preload("Circle").
		Preload("Circle.InterestGroup").
		Order("circle_meeting_logs.meet_time ASC").
		Find(&meetings).Error
	return meetings, err
}

func (r *meetingRepo) Update(ctx context.Context, meeting *model.CircleMeeting) error {
	return r.db.WithContext(ctx).
		Omit("Circle", "Creator", "Attendees").
		Save(meeting).Error
}

func (r *meetingRepo) MarkReportSubmitted(ctx context.Context, id, reportText string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CircleMeeting{}).
		Where("id = ? AND is_report_submitted = ?", id, false).
		Updates(map[string]interface{}{
			"is_report_submitted": true,
			"report_text":         reportText,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *meetingRepo) ClearReport(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.CircleMeeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_report_submitted": false,
			"report_text":         nil,
		}).Error
}

func (r *meetingRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meet_id = ?", id).
			Delete(&model.CircleMeetingAttendee{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.CircleMeeting{}).Error
	})
}
