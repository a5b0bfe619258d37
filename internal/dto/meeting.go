package dto

import "time"

// ── 聚会模块 DTO ──

// CreateMeetingRequest 创建聚会请求
type CreateMeetingRequest struct {
	Title             string    `json:"title"              validate:"required,max=100"`
	Description       *string   `json:"description"        validate:"omitempty,max=1000"`
	Mode              string    `json:"mode"               validate:"omitempty,oneof=offline online"`
	MeetLink          *string   `json:"meet_link"          validate:"omitempty,url,max=255"`
	IsReportNeeded    *bool     `json:"is_report_needed"`
	ReportDescription *string   `json:"report_description" validate:"omitempty,max=1000"`
	CoordX            float64   `json:"coord_x"`
	CoordY            float64   `json:"coord_y"`
	MeetPlace         string    `json:"meet_place"         validate:"required,max=255"`
	MeetTime          time.Time `json:"meet_time"          validate:"required"`
	Duration          int       `json:"duration"           validate:"min=1,max=24"`
}

// UpdateMeetingRequest 编辑聚会请求；nil 字段保持原值
type UpdateMeetingRequest struct {
	Title             *string    `json:"title"              validate:"omitempty,min=1,max=100"`
	Description       *string    `json:"description"        validate:"omitempty,max=1000"`
	Mode              *string    `json:"mode"               validate:"omitempty,oneof=offline online"`
	MeetLink          *string    `json:"meet_link"          validate:"omitempty,url,max=255"`
	IsReportNeeded    *bool      `json:"is_report_needed"`
	ReportDescription *string    `json:"report_description" validate:"omitempty,max=1000"`
	CoordX            *float64   `json:"coord_x"`
	CoordY            *float64   `json:"coord_y"`
	MeetPlace         *string    `json:"meet_place"         validate:"omitempty,min=1,max=255"`
	MeetTime          *time.Time `json:"meet_time"`
	Duration          *int       `json:"duration"           validate:"omitempty,min=1,max=24"`
}

// BrowseMeetingsQuery 聚会浏览查询参数
type BrowseMeetingsQuery struct {
	Category     string `form:"category"` // 单个类别，"all" 表示不限
	Saved        bool   `form:"saved"`
	Participated bool   `form:"participated"`
}

// MeetingResponse 聚会信息响应
type MeetingResponse struct {
	ID                string  `json:"id"`
	CircleID          string  `json:"circle_id"`
	CircleTitle       string  `json:"circle_title,omitempty"`
	Category          string  `json:"category,omitempty"`
	Title             string  `json:"title"`
	Description       *string `json:"description,omitempty"`
	Mode              string  `json:"mode"`
	MeetLink          *string `json:"meet_link,omitempty"`
	MeetPlace         string  `json:"meet_place"`
	CoordX            float64 `json:"coord_x"`
	CoordY            float64 `json:"coord_y"`
	MeetTime          string  `json:"meet_time"`
	Duration          int     `json:"duration"`
	IsReportNeeded    bool    `json:"is_report_needed"`
	ReportDescription *string `json:"report_description,omitempty"`
	IsReportSubmitted bool    `json:"is_report_submitted"`
	IsApproved        bool    `json:"is_approved"`
	IsStarted         bool    `json:"is_started"`
	IsEnded           bool    `json:"is_ended"`
	CreatedBy         string  `json:"created_by"`
	MeetCode          string  `json:"meet_code,omitempty"` // 仅组织者可见
}

// MeetingDetailResponse 聚会详情
type MeetingDetailResponse struct {
	MeetingResponse
	IsMember      bool               `json:"is_member"` // 浏览者是否为组织者
	AttendeeState string             `json:"attendee_state,omitempty"`
	Attendees     []AttendeeResponse `json:"attendees"`
}

// AttendeeResponse 参与者信息
type AttendeeResponse struct {
	UserID            string  `json:"user_id"`
	FullName          string  `json:"full_name,omitempty"`
	Muid              string  `json:"muid,omitempty"`
	ProfilePic        *string `json:"profile_pic,omitempty"`
	IsJoined          bool    `json:"is_joined"`
	JoinedAt          string  `json:"joined_at,omitempty"`
	IsReportSubmitted bool    `json:"is_report_submitted"`
	IsLcApproved      bool    `json:"is_lc_approved"`
	State             string  `json:"state"`
}
