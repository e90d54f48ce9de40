package db

import "gorm.io/gorm"

// GymSetting 存储后台可配置的场馆级键值对。
type GymSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (GymSetting) TableName() string {
	return "gym_settings"
}

const (
	// SettingKeyGymName 表示场馆名称。
	SettingKeyGymName = "gym_name"
	// SettingKeyContactEmail 表示对外联系邮箱。
	SettingKeyContactEmail = "contact_email"
	// SettingKeyOpeningHours 表示营业时间描述文本。
	SettingKeyOpeningHours = "opening_hours"
)
