package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	// MemberStatusActive 表示会员可正常入场。
	MemberStatusActive = "active"
	// MemberStatusInactive 表示会员已停卡或过期。
	MemberStatusInactive = "inactive"
)

// Member 定义了会员模型
// MemberNumber 为展示给前台的会员编号，创建时自动生成
// Email 用于会员端登录，Password 仅在开通会员端账号时填写
// Status 只使用 active/inactive，供列表过滤与后台统计使用，不参与入场校验
type Member struct {
	gorm.Model
	FullName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Phone        string
	MemberNumber string `gorm:"size:20;uniqueIndex;not null"`
	Password     string
	Status       string `gorm:"size:20;not null;default:active"`
	JoinedAt     time.Time
	Notes        string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (Member) TableName() string {
	return "members"
}
