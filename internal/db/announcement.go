package db

import (
	"time"

	"gorm.io/gorm"
)

// Announcement 定义了场馆公告
// Body 为 Markdown 原文，渲染后的 HTML 不落库，由服务层按需生成
// PublishedAt 为空表示草稿，不对会员端展示
type Announcement struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Body        string `gorm:"type:text"`
	AuthorID    uint   `gorm:"index"`
	PublishedAt *time.Time
}

// TableName 自定义表名以保持命名一致。
func (Announcement) TableName() string {
	return "announcements"
}
