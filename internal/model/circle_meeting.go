package model

import (
	"time"

	"gorm.io/gorm"
)

// 聚会形式
const (
	MeetModeOffline = "offline"
	MeetModeOnline  = "online"
)

// OnlineMeetPlaces 线上聚会允许的平台
var OnlineMeetPlaces = []string{"Zoom", "Google Meet", "Microsoft Teams", "Other"}

// CircleMeeting 学习圈聚会表 — 对应 circle_meeting_logs
type CircleMeeting struct {
	ID                string    `gorm:"type:varchar(36);primaryKey"  json:"id"`
	CircleID          string    `gorm:"type:varchar(36);not null"    json:"circle_id"`
	MeetCode          string    `gorm:"type:varchar(10);not null"    json:"-"`
	Title             string    `gorm:"type:varchar(100);not null"   json:"title"`
	Description       *string   `gorm:"type:varchar(1000)"           json:"description,omitempty"`
	Mode              string    `gorm:"type:varchar(10);not null"    json:"mode"` // offline | online
	MeetLink          *string   `gorm:"type:varchar(255)"            json:"meet_link,omitempty"`
	IsReportNeeded    bool      `gorm:"not null"                     json:"is_report_needed"`
	ReportDescription *string   `gorm:"type:varchar(1000)"           json:"report_description,omitempty"`
	CoordX            float64   `gorm:"not null"                     json:"coord_x"`
	CoordY            float64   `gorm:"not null"                     json:"coord_y"`
	MeetPlace         string    `gorm:"type:varchar(255);not null"   json:"meet_place"`
	MeetTime          time.Time `gorm:"not null;index"               json:"meet_time"`
	Duration          int       `gorm:"not null"                     json:"duration"` // 小时
	IsReportSubmitted bool      `gorm:"not null"                     json:"is_report_submitted"`
	ReportText        *string   `gorm:"type:varchar(1000)"           json:"report_text,omitempty"`
	IsApproved        bool      `gorm:"not null"                     json:"is_approved"`
	CreatedBy         string    `gorm:"type:varchar(36);not null"    json:"created_by"`
	Timestamps

	// 关联
	Circle    *LearningCircle         `gorm:"foreignKey:CircleID;references:ID"  json:"circle,omitempty"`
	Creator   *User                   `gorm:"foreignKey:CreatedBy;references:ID" json:"creator,omitempty"`
	Attendees []CircleMeetingAttendee `gorm:"foreignKey:MeetID"                  json:"attendees,omitempty"`
}

// TableName 指定表名
func (CircleMeeting) TableName() string { return "circle_meeting_logs" }

// BeforeCreate 生成主键
func (m *CircleMeeting) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// IsStarted 当前时间已到达开始时间
func (m *CircleMeeting) IsStarted(now time.Time) bool {
	return !now.Before(m.MeetTime)
}

// IsEnded 开始时间 + (时长 + 1) 小时之后视为结束，多出的 1 小时为宽限
func (m *CircleMeeting) IsEnded(now time.Time) bool {
	return !now.Before(m.MeetTime.Add(time.Duration(m.Duration+1) * time.Hour))
}

// JoinClosesAt 加入截止时间：开始时间 + (时长 + graceHours) 小时
func (m *CircleMeeting) JoinClosesAt(graceHours int) time.Time {
	return m.MeetTime.Add(time.Duration(m.Duration+graceHours) * time.Hour)
}
