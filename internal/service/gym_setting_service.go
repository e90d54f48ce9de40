package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gymlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GymSettings 描述后台可配置的场馆信息。
type GymSettings struct {
	GymName      string
	ContactEmail string
	OpeningHours string
}

// GymSettingsInput 定义更新场馆设置时的输入对象。
type GymSettingsInput struct {
	GymName      string
	ContactEmail string
	OpeningHours string
}

// GymSettingService 负责场馆级键值配置的读写。
type GymSettingService struct {
	db *gorm.DB
}

// NewGymSettingService 构造 GymSettingService
func NewGymSettingService(gdb *gorm.DB) *GymSettingService {
	return &GymSettingService{db: gdb}
}

// GetSettings 读取全部场馆设置，缺失项返回零值。
func (s *GymSettingService) GetSettings() (GymSettings, error) {
	var settings GymSettings

	var rows []db.GymSetting
	if err := s.db.Where("key IN ?", []string{
		db.SettingKeyGymName,
		db.SettingKeyContactEmail,
		db.SettingKeyOpeningHours,
	}).Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settings, nil
		}
		return settings, fmt.Errorf("load gym settings: %w", err)
	}

	for _, row := range rows {
		switch row.Key {
		case db.SettingKeyGymName:
			settings.GymName = row.Value
		case db.SettingKeyContactEmail:
			settings.ContactEmail = row.Value
		case db.SettingKeyOpeningHours:
			settings.OpeningHours = row.Value
		}
	}

	return settings, nil
}

// UpdateSettings 整体更新场馆设置，空场馆名回退到默认值。
func (s *GymSettingService) UpdateSettings(input GymSettingsInput) (GymSettings, error) {
	sanitized := GymSettings{
		GymName:      strings.TrimSpace(input.GymName),
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		OpeningHours: strings.TrimSpace(input.OpeningHours),
	}

	if sanitized.GymName == "" {
		sanitized.GymName = "GymLog"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertSetting(tx, db.SettingKeyGymName, sanitized.GymName); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyContactEmail, sanitized.ContactEmail); err != nil {
			return err
		}
		return upsertSetting(tx, db.SettingKeyOpeningHours, sanitized.OpeningHours)
	})
	if err != nil {
		return GymSettings{}, err
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.GymSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
