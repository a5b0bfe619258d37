package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"learning-circle/backend/internal/model"
)

// AttendeeRepository 聚会参与记录数据访问接口
type AttendeeRepository interface {
	// Create 插入参与记录；(meet_id, user_id) 重复时返回唯一约束错误
	Create(ctx context.Context, attendee *model.CircleMeetingAttendee) error
	GetByMeetAndUser(ctx context.Context, meetID, userID string) (*model.CircleMeetingAttendee, error)
	ListByMeet(ctx context.Context, meetID string) ([]model.CircleMeetingAttendee, error)
	// MarkJoined 条件更新 SAVED → JOINED；返回是否命中
	MarkJoined(ctx context.Context, id string, joinedAt time.Time) (bool, error)
	UpdateReport(ctx context.Context, id string, text, link *string, submitted bool) error
	SetApproval(ctx context.Context, meetID string, userIDs []string, approved bool) error
	ResetApprovals(ctx context.Context, meetID string) error
	Delete(ctx context.Context, id string) error
}

// attendeeRepo AttendeeRepository 的 GORM 实现
type attendeeRepo struct {
	db *gorm.DB
}

// NewAttendeeRepo 创建 AttendeeRepository 实例
func NewAttendeeRepo(db *gorm.DB) AttendeeRepository {
	return &attendeeRepo{db: db}
}

func (r *attendeeRepo) Create(ctx context.Context, attendee *model.CircleMeetingAttendee) error {
	return r.db.WithContext(ctx).Omit("User").Create(attendee).Error
}

func (r *attendeeRepo) GetByMeetAndUser(ctx context.Context, meetID, userID string) (*model.CircleMeetingAttendee, error) {
	var attendee model.CircleMeetingAttendee
	err := r.db.WithContext(ctx).
		Where("meet_id = ? AND user_id = ?", meetID, userID).
		First(&attendee).Error
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

func (r *attendeeRepo) ListByMeet(ctx context.Context, meetID string) ([]model.CircleMeetingAttendee, error) {
	var attendees []model.CircleMeetingAttendee
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("meet_id = ?", meetID).
		Order("created_at ASC").
		Find(&attendees).Error
	return attendees, err
}

func (r *attendeeRepo) MarkJoined(ctx context.Context, id string, joinedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CircleMeetingAttendee{}).
		Where("id = ? AND is_joined = ?", id, false).
		Updates(map[string]interface{}{
			"is_joined": true,
			"joined_at": joinedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *attendeeRepo) UpdateReport(ctx context.Context, id string, text, link *string, submitted bool) error {
	return r.db.WithContext(ctx).
		Model(&model.CircleMeetingAttendee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"report_text":         text,
			"report_link":         link,
			"is_report_submitted": submitted,
		}).Error
}

func (r *attendeeRepo) SetApproval(ctx context.Context, meetID string, userIDs []string, approved bool) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.CircleMeetingAttendee{}).
		Where("meet_id = ? AND user_id IN ?", meetID, userIDs).
		Update("is_lc_approved", approved).Error
}

func (r *attendeeRepo) ResetApprovals(ctx context.Context, meetID string) error {
	return r.db.WithContext(ctx).
		Model(&model.CircleMeetingAttendee{}).
		Where("meet_id = ? AND is_joined = ?", meetID, true).
		Update("is_lc_approved", false).Error
}

func (r *attendeeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.CircleMeetingAttendee{}).Error
}
