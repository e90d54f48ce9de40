package db

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionPlan 定义了订阅套餐
// DurationMonths 为套餐时长（月），开通订阅时据此推算到期日
type SubscriptionPlan struct {
	gorm.Model
	Name           string `gorm:"uniqueIndex;not null"`
	Description    string
	PriceCents     int64 `gorm:"not null"`
	DurationMonths int   `gorm:"not null"`
}

// TableName 自定义表名以保持命名一致。
func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// MemberSubscription 记录会员开通的订阅
// member_id 上带 active 条件的部分唯一索引保证同一会员最多一份生效订阅
type MemberSubscription struct {
	gorm.Model
	MemberID  uint             `gorm:"index;index:idx_subscription_active_member,unique,where:active"`
	Member    Member           `gorm:"constraint:OnDelete:CASCADE"`
	PlanID    uint             `gorm:"index;not null"`
	Plan      SubscriptionPlan `gorm:"constraint:OnDelete:CASCADE"`
	StartsAt  time.Time        `gorm:"not null"`
	ExpiresAt time.Time        `gorm:"index;not null"`
	Active    bool             `gorm:"not null;default:true"`
}

// TableName 自定义表名以保持命名一致。
func (MemberSubscription) TableName() string {
	return "member_subscriptions"
}
