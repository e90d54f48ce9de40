package service

import (
	"fmt"
	"testing"

	"github.com/gymlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGymSettingTestDB(t *testing.T) func() {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.GymSetting{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestGetSettingsEmptyDatabase(t *testing.T) {
	cleanup := setupGymSettingTestDB(t)
	defer cleanup()

	svc := NewGymSettingService(db.DB)

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if settings.GymName != "" || settings.ContactEmail != "" || settings.OpeningHours != "" {
		t.Fatalf("expected zero-value settings, got %+v", settings)
	}
}

func TestUpdateSettingsRoundTrip(t *testing.T) {
	cleanup := setupGymSettingTestDB(t)
	defer cleanup()

	svc := NewGymSettingService(db.DB)

	saved, err := svc.UpdateSettings(GymSettingsInput{
		GymName:      "  城北健身  ",
		ContactEmail: "hello@example.com",
		OpeningHours: "06:00-23:00",
	})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if saved.GymName != "城北健身" {
		t.Fatalf("expected trimmed gym name, got %q", saved.GymName)
	}

	loaded, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if loaded != saved {
		t.Fatalf("reloaded settings mismatch: %+v vs %+v", loaded, saved)
	}
}

func TestUpdateSettingsUpsertsExistingKeys(t *testing.T) {
	cleanup := setupGymSettingTestDB(t)
	defer cleanup()

	svc := NewGymSettingService(db.DB)

	if _, err := svc.UpdateSettings(GymSettingsInput{GymName: "旧馆名"}); err != nil {
		t.Fatalf("first update returned error: %v", err)
	}
	if _, err := svc.UpdateSettings(GymSettingsInput{GymName: "新馆名", OpeningHours: "08:00-22:00"}); err != nil {
		t.Fatalf("second update returned error: %v", err)
	}

	var count int64
	if err := db.DB.Model(&db.GymSetting{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count settings: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 setting rows after repeated updates, got %d", count)
	}

	loaded, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if loaded.GymName != "新馆名" || loaded.OpeningHours != "08:00-22:00" {
		t.Fatalf("unexpected settings after upsert: %+v", loaded)
	}
}

func TestUpdateSettingsDefaultsGymName(t *testing.T) {
	cleanup := setupGymSettingTestDB(t)
	defer cleanup()

	svc := NewGymSettingService(db.DB)

	saved, err := svc.UpdateSettings(GymSettingsInput{GymName: "   "})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if saved.GymName != "GymLog" {
		t.Fatalf("expected default gym name, got %q", saved.GymName)
	}
}
