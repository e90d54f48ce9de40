package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	// EquipmentStatusOperational 表示器械可正常使用。
	EquipmentStatusOperational = "operational"
	// EquipmentStatusMaintenance 表示器械维修中。
	EquipmentStatusMaintenance = "maintenance"
	// EquipmentStatusRetired 表示器械已报废下架。
	EquipmentStatusRetired = "retired"
)

// Equipment 定义了器械模型
// Category 自由文本分类（cardio/strength 等），便于筛选
// LastServicedAt 记录最近一次保养时间，维护报表使用
type Equipment struct {
	gorm.Model
	Name           string `gorm:"not null"`
	Category       string `gorm:"size:50"`
	Status         string `gorm:"size:20;not null;default:operational"`
	PurchasedAt    *time.Time
	LastServicedAt *time.Time
	Notes          string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (Equipment) TableName() string {
	return "equipment"
}
