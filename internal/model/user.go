package model

import "gorm.io/gorm"

// User 用户表 — 对应 users（由主站维护，本服务只读）
type User struct {
	ID         string  `gorm:"type:varchar(36);primaryKey"  json:"id"`
	FullName   string  `gorm:"type:varchar(150);not null"   json:"full_name"`
	Muid       string  `gorm:"type:varchar(100);not null"   json:"muid"`
	ProfilePic *string `gorm:"type:varchar(255)"            json:"profile_pic,omitempty"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
