package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 gymlog.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "gymlog.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return err
	}

	// 自动迁移模式，为核心模型创建表
	if err = DB.AutoMigrate(
		&StaffUser{},
		&Member{},
		&AttendanceRecord{},
		&Equipment{},
		&Payment{},
		&SubscriptionPlan{},
		&MemberSubscription{},
		&Announcement{},
		&GymSetting{},
	); err != nil {
		return err
	}

	// 旧数据回填：早期会员没有会员编号与状态
	var legacy []Member
	if err := DB.Where("member_number = '' OR member_number IS NULL").Find(&legacy).Error; err != nil {
		return err
	}
	for i := range legacy {
		legacy[i].MemberNumber = NewMemberNumber()
		if err := DB.Model(&legacy[i]).Update("member_number", legacy[i].MemberNumber).Error; err != nil {
			return err
		}
	}

	if err := DB.Model(&Member{}).
		Where("status = '' OR status IS NULL").
		Update("status", MemberStatusActive).Error; err != nil {
		return err
	}
	if err := DB.Model(&Equipment{}).
		Where("status = '' OR status IS NULL").
		Update("status", EquipmentStatusOperational).Error; err != nil {
		return err
	}

	return nil
}

// NewMemberNumber 生成全局唯一的会员编号。
func NewMemberNumber() string {
	return "GM-" + strings.ToUpper(uuid.NewString()[:8])
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
