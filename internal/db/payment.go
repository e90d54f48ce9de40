package db

import (
	"time"

	"gorm.io/gorm"
)

// 支付方式枚举
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

// Payment 记录会员缴费
// AmountCents 以分为单位存储，避免浮点误差
// Reference 为对外展示的流水号，创建时生成且唯一
type Payment struct {
	gorm.Model
	MemberID    uint      `gorm:"index;not null"`
	Member      Member    `gorm:"constraint:OnDelete:CASCADE"`
	AmountCents int64     `gorm:"not null"`
	Method      string    `gorm:"size:20;not null"`
	Reference   string    `gorm:"size:40;uniqueIndex;not null"`
	PaidAt      time.Time `gorm:"index;not null"`
	Description string
}

// TableName 自定义表名以保持命名一致。
func (Payment) TableName() string {
	return "payments"
}
