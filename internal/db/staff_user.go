package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// StaffRoleAdmin 拥有全部后台权限。
	StaffRoleAdmin = "admin"
	// StaffRoleStaff 为前台普通员工。
	StaffRoleStaff = "staff"
)

// StaffUser 定义了后台员工账号模型
type StaffUser struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Role     string `gorm:"size:20;not null;default:staff"`
}

// TableName 自定义表名以保持命名一致。
func (StaffUser) TableName() string {
	return "staff_users"
}

// EnsureRootAdmin 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的管理员。
func EnsureRootAdmin(username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing StaffUser
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&StaffUser{Username: trimmedUser, Password: string(hashed), Role: StaffRoleAdmin}).Error
	}

	return nil
}
