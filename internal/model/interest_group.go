package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InterestGroup 兴趣组表 — 对应 interest_groups
type InterestGroup struct {
	ID       string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(75);not null"   json:"name"`
	Category string `gorm:"type:varchar(50);not null"   json:"category"`
	Timestamps
}

// TableName 指定表名
func (InterestGroup) TableName() string { return "interest_groups" }

// BeforeCreate 生成主键
func (g *InterestGroup) BeforeCreate(_ *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

// UserInterest 用户兴趣偏好表 — 对应 user_interests
type UserInterest struct {
	ID              string                      `gorm:"type:varchar(36);primaryKey"                         json:"id"`
	UserID          string                      `gorm:"type:varchar(36);not null;uniqueIndex:uq_user_interests_user" json:"user_id"`
	ChosenInterests datatypes.JSONSlice[string] `gorm:"not null"                                            json:"chosen_interests"`
	Timestamps
}

// TableName 指定表名
func (UserInterest) TableName() string { return "user_interests" }

// BeforeCreate 生成主键
func (u *UserInterest) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
