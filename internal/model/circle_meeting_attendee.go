package model

import (
	"time"

	"gorm.io/gorm"
)

// AttendanceState 用户在单次聚会中的参与状态
type AttendanceState string

const (
	AttendanceNone     AttendanceState = "none"
	AttendanceSaved    AttendanceState = "saved"    // 开始前收藏，is_joined=false
	AttendanceJoined   AttendanceState = "joined"   // 凭加入码签到
	AttendanceReported AttendanceState = "reported" // 已提交个人报告
	AttendanceApproved AttendanceState = "approved"
	AttendanceRejected AttendanceState = "rejected"
)

// CircleMeetingAttendee 聚会参与记录表 — 对应 circle_meeting_attendees
// (meet_id, user_id) 唯一
type CircleMeetingAttendee struct {
	ID                string     `gorm:"type:varchar(36);primaryKey"                              json:"id"`
	MeetID            string     `gorm:"type:varchar(36);not null;uniqueIndex:uq_attendee_meet_user" json:"meet_id"`
	UserID            string     `gorm:"type:varchar(36);not null;uniqueIndex:uq_attendee_meet_user" json:"user_id"`
	IsJoined          bool       `gorm:"not null"                                                 json:"is_joined"`
	JoinedAt          *time.Time `json:"joined_at,omitempty"`
	IsReportSubmitted bool       `gorm:"not null"                                                 json:"is_report_submitted"`
	ReportText        *string    `gorm:"type:varchar(1000)"                                       json:"report_text,omitempty"`
	ReportLink        *string    `gorm:"type:varchar(255)"                                        json:"report_link,omitempty"`
	IsLcApproved      bool       `gorm:"not null"                                                 json:"is_lc_approved"`
	Timestamps

	// 关联
	User *User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// TableName 指定表名
func (CircleMeetingAttendee) TableName() string { return "circle_meeting_attendees" }

// BeforeCreate 生成主键
func (a *CircleMeetingAttendee) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// State 推导参与状态；组织者提交汇总报告后已报告者才进入 approved / rejected
func (a *CircleMeetingAttendee) State(aggregateSubmitted bool) AttendanceState {
	switch {
	case a == nil:
		return AttendanceNone
	case !a.IsJoined:
		return AttendanceSaved
	case !a.IsReportSubmitted:
		return AttendanceJoined
	case !aggregateSubmitted:
		return AttendanceReported
	case a.IsLcApproved:
		return AttendanceApproved
	default:
		return AttendanceRejected
	}
}
