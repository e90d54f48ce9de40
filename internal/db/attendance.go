package db

import (
	"time"

	"gorm.io/gorm"
)

// 场馆区域枚举，入场时校验
const (
	LocationMainGym      = "Main Gym"
	LocationCardioArea   = "Cardio Area"
	LocationWeightRoom   = "Weight Room"
	LocationGroupClasses = "Group Classes"
	LocationPool         = "Pool"
)

// AttendanceLocations 列出全部合法的入场区域。
var AttendanceLocations = []string{
	LocationMainGym,
	LocationCardioArea,
	LocationWeightRoom,
	LocationGroupClasses,
	LocationPool,
}

// IsValidLocation 判断区域名是否在枚举内。
func IsValidLocation(location string) bool {
	for _, l := range AttendanceLocations {
		if l == location {
			return true
		}
	}
	return false
}

// AttendanceRecord 记录一次入场（到访）
// CheckOutTime 为空表示会员仍在馆内；member_id 上带 check_out_time IS NULL
// 条件的部分唯一索引保证同一会员最多只有一条未关闭记录，并发入场只有一方能写入成功
// DurationMinutes 仅在离场时计算一次，之后不再改写
type AttendanceRecord struct {
	gorm.Model
	MemberID        uint       `gorm:"index;index:idx_attendance_open_member,unique,where:check_out_time IS NULL"`
	Member          Member     `gorm:"constraint:OnDelete:CASCADE"`
	CheckInTime     time.Time  `gorm:"index;not null"`
	CheckOutTime    *time.Time
	Location        string     `gorm:"size:50"`
	Notes           string     `gorm:"type:text"`
	DurationMinutes *int
}

// TableName 重写确保部分唯一索引作用到 member_id + check_out_time
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// IsOpen 判断记录是否仍处于在馆状态。
func (r AttendanceRecord) IsOpen() bool {
	return r.CheckOutTime == nil
}
