package dto

// ── 学习圈模块 DTO ──

// CreateCircleRequest 创建学习圈请求
type CreateCircleRequest struct {
	Title          string  `json:"title"           validate:"required,max=100"`
	Description    string  `json:"description"     validate:"required,max=1000"`
	IgID           string  `json:"ig"              validate:"required,max=36"`
	OrgID          *string `json:"org"             validate:"omitempty,max=36"`
	Note           *string `json:"note"            validate:"omitempty,max=500"`
	IsRecurring    bool    `json:"is_recurring"`
	RecurrenceType *string `json:"recurrence_type"`
	Recurrence     *int    `json:"recurrence"`
}

// UpdateCircleRequest 编辑学习圈请求；nil 字段保持原值
type UpdateCircleRequest struct {
	Title          *string `json:"title"           validate:"omitempty,min=1,max=100"`
	Description    *string `json:"description"     validate:"omitempty,min=1,max=1000"`
	Note           *string `json:"note"            validate:"omitempty,max=500"`
	IsRecurring    *bool   `json:"is_recurring"`
	RecurrenceType *string `json:"recurrence_type"`
	Recurrence     *int    `json:"recurrence"`
}

// NextMeetupResponse 下一次聚会
// IsScheduled=true 表示已创建的聚会，false 表示按重复规则推算的日期
type NextMeetupResponse struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	MeetTime    string `json:"meet_time"`
	IsScheduled bool   `json:"is_scheduled"`
}

// CircleResponse 学习圈信息响应
type CircleResponse struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Note           *string             `json:"note,omitempty"`
	IgID           string              `json:"ig"`
	IgName         string              `json:"ig_name,omitempty"`
	Category       string              `json:"category,omitempty"`
	OrgID          *string             `json:"org,omitempty"`
	IsRecurring    bool                `json:"is_recurring"`
	RecurrenceType *string             `json:"recurrence_type,omitempty"`
	Recurrence     *int                `json:"recurrence,omitempty"`
	CreatedBy      string              `json:"created_by"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at"`
	NextMeetup     *NextMeetupResponse `json:"next_meetup"`
}

// CircleDetailResponse 学习圈详情：附带已完成（已提交汇总报告）的历史聚会
type CircleDetailResponse struct {
	CircleResponse
	IsOwner     bool              `json:"is_owner"`
	PastMeetups []MeetingResponse `json:"past_meetups"`
}
