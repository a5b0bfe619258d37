package model

import "gorm.io/gorm"

// 学习圈重复类型
const (
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// LearningCircle 学习圈表 — 对应 learning_circles
type LearningCircle struct {
	ID             string  `gorm:"type:varchar(36);primaryKey"         json:"id"`
	IgID           string  `gorm:"type:varchar(36);not null"           json:"ig_id"`
	OrgID          *string `gorm:"type:varchar(36)"                    json:"org_id,omitempty"`
	Title          string  `gorm:"type:varchar(100);not null"          json:"title"`
	Description    string  `gorm:"type:varchar(1000);not null"         json:"description"`
	Note           *string `gorm:"type:varchar(500)"                   json:"note,omitempty"`
	IsRecurring    bool    `gorm:"not null"                            json:"is_recurring"`
	RecurrenceType *string `gorm:"type:varchar(10)"                    json:"recurrence_type,omitempty"` // weekly | monthly
	Recurrence     *int    `json:"recurrence,omitempty"`                                                 // weekly: ISO 星期 1-7；monthly: 日 1-28
	CreatedBy      string  `gorm:"type:varchar(36);not null;index"     json:"created_by"`
	Timestamps

	// 关联
	InterestGroup *InterestGroup `gorm:"foreignKey:IgID;references:ID"      json:"interest_group,omitempty"`
	Creator       *User          `gorm:"foreignKey:CreatedBy;references:ID" json:"creator,omitempty"`
}

// TableName 指定表名
func (LearningCircle) TableName() string { return "learning_circles" }

// BeforeCreate 生成主键
func (c *LearningCircle) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
