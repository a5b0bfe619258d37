package dto

// ── 参与 / 报告模块 DTO ──

// JoinMeetingRequest 加入聚会请求；聚会开始前收藏无需加入码
type JoinMeetingRequest struct {
	Code string `json:"code"`
}

// JoinMeetingResponse 加入结果
type JoinMeetingResponse struct {
	MeetID   string `json:"meet_id"`
	State    string `json:"state"` // saved | joined
	JoinedAt string `json:"joined_at,omitempty"`
}

// AttendeeReportRequest 参与者个人报告；文本与链接至少其一
type AttendeeReportRequest struct {
	ReportText *string `json:"report_text" validate:"omitempty,max=1000"`
	ReportLink *string `json:"report_link" validate:"omitempty,url,max=255"`
}

// AttendeeReportResponse 参与者个人报告
type AttendeeReportResponse struct {
	MeetID            string  `json:"meet_id"`
	UserID            string  `json:"user_id"`
	ReportText        *string `json:"report_text,omitempty"`
	ReportLink        *string `json:"report_link,omitempty"`
	IsReportSubmitted bool    `json:"is_report_submitted"`
	IsLcApproved      bool    `json:"is_lc_approved"`
	State             string  `json:"state"`
}

// CircleReportRequest 组织者汇总报告；Attendees 为 user_id → 是否通过
type CircleReportRequest struct {
	ReportText string          `json:"report_text" validate:"required,max=1000"`
	Attendees  map[string]bool `json:"attendees"   validate:"required,min=2"`
}

// CircleReportResponse 组织者汇总报告
type CircleReportResponse struct {
	MeetID            string             `json:"meet_id"`
	ReportText        *string            `json:"report_text,omitempty"`
	IsReportSubmitted bool               `json:"is_report_submitted"`
	IsApproved        bool               `json:"is_approved"`
	Attendees         []AttendeeResponse `json:"attendees"`
}
