package model

import (
	"time"

	"gorm.io/gorm"
)

// KarmaActivity Karma 活动定义表 — 对应 karma_activities
type KarmaActivity struct {
	ID      string `gorm:"type:varchar(36);primaryKey"                                    json:"id"`
	Hashtag string `gorm:"type:varchar(75);not null;uniqueIndex:uq_karma_activities_hashtag" json:"hashtag"`
	Title   string `gorm:"type:varchar(150);not null"                                     json:"title"`
	Karma   int    `gorm:"not null"                                                       json:"karma"` // 默认奖励值
	Timestamps
}

// TableName 指定表名
func (KarmaActivity) TableName() string { return "karma_activities" }

// BeforeCreate 生成主键
func (k *KarmaActivity) BeforeCreate(_ *gorm.DB) error {
	ensureID(&k.ID)
	return nil
}

// Wallet 用户 Karma 余额表 — 对应 wallets
type Wallet struct {
	ID                 string     `gorm:"type:varchar(36);primaryKey"                         json:"id"`
	UserID             string     `gorm:"type:varchar(36);not null;uniqueIndex:uq_wallets_user" json:"user_id"`
	Karma              int64      `gorm:"not null"                                            json:"karma"`
	KarmaLastUpdatedAt *time.Time `json:"karma_last_updated_at,omitempty"`
	Timestamps
}

// TableName 指定表名
func (Wallet) TableName() string { return "wallets" }

// BeforeCreate 生成主键
func (w *Wallet) BeforeCreate(_ *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

// KarmaActivityLog Karma 发放审计日志 — 对应 karma_activity_logs
type KarmaActivityLog struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"       json:"id"`
	UserID     string    `gorm:"type:varchar(36);not null;index"   json:"user_id"`
	ActivityID string    `gorm:"type:varchar(36);not null"         json:"activity_id"`
	Karma      int       `gorm:"not null"                          json:"karma"`
	ApprovedBy string    `gorm:"type:varchar(36);not null"         json:"approved_by"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (KarmaActivityLog) TableName() string { return "karma_activity_logs" }

// BeforeCreate 生成主键
func (l *KarmaActivityLog) BeforeCreate(_ *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
