package service

import (
	"fmt"
	"time"

	"github.com/gymlog/internal/db"
	"gorm.io/gorm"
)

// DashboardService 汇总后台首页需要的各项指标
type DashboardService struct {
	db  *gorm.DB
	loc *time.Location
}

// DashboardOverview 聚合场馆层面的运营数据。
type DashboardOverview struct {
	TotalMembers           int64
	ActiveMembers          int64
	TodayCheckIns          int64
	CurrentlyInGym         int64
	MonthRevenueCents      int64
	EquipmentInMaintenance int64
	ActiveSubscriptions    int64
}

// NewDashboardService 构造 DashboardService，loc 为空时回退到 UTC。
func NewDashboardService(gdb *gorm.DB, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{db: gdb, loc: loc}
}

// Overview 汇总截至 now 的运营指标，日界与月界均按场馆时区划分。
func (s *DashboardService) Overview(now time.Time) (*DashboardOverview, error) {
	overview := &DashboardOverview{}

	if err := s.db.Model(&db.Member{}).Count(&overview.TotalMembers).Error; err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	if err := s.db.Model(&db.Member{}).
		Where("status = ?", db.MemberStatusActive).
		Count(&overview.ActiveMembers).Error; err != nil {
		return nil, fmt.Errorf("count active members: %w", err)
	}

	// sqlite 按 UTC 文本比较时间戳，日界/月界边界先归一化到 UTC
	local := now.In(s.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	if err := s.db.Model(&db.AttendanceRecord{}).
		Where("check_in_time >= ? AND check_in_time < ?", dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC()).
		Count(&overview.TodayCheckIns).Error; err != nil {
		return nil, fmt.Errorf("count today check-ins: %w", err)
	}
	if err := s.db.Model(&db.AttendanceRecord{}).
		Where("check_out_time IS NULL").
		Count(&overview.CurrentlyInGym).Error; err != nil {
		return nil, fmt.Errorf("count open records: %w", err)
	}

	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
	var revenue struct {
		TotalCents int64
	}
	if err := s.db.Model(&db.Payment{}).
		Select("COALESCE(SUM(amount_cents), 0) AS total_cents").
		Where("paid_at >= ? AND paid_at < ?", monthStart.UTC(), monthStart.AddDate(0, 1, 0).UTC()).
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("sum month revenue: %w", err)
	}
	overview.MonthRevenueCents = revenue.TotalCents

	if err := s.db.Model(&db.Equipment{}).
		Where("status = ?", db.EquipmentStatusMaintenance).
		Count(&overview.EquipmentInMaintenance).Error; err != nil {
		return nil, fmt.Errorf("count equipment in maintenance: %w", err)
	}

	if err := s.db.Model(&db.MemberSubscription{}).
		Where("active").
		Count(&overview.ActiveSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("count active subscriptions: %w", err)
	}

	return overview, nil
}
