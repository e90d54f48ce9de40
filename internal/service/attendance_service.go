package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gymlog/internal/db"
	"gorm.io/gorm"
)

const dateFormat = "2006-01-02"

var (
	// ErrUnknownMember 在会员编号无法解析时返回
	ErrUnknownMember = errors.New("unknown member")
	// ErrAlreadyCheckedIn 在会员已有未关闭的入场记录时返回
	ErrAlreadyCheckedIn = errors.New("member already checked in")
	// ErrNotCheckedIn 在会员没有未关闭的入场记录时返回
	ErrNotCheckedIn = errors.New("member not checked in")
	// ErrInvalidLocation 在入场区域不在枚举内时返回
	ErrInvalidLocation = errors.New("invalid attendance location")
)

// MemberDirectory 是考勤模块对会员档案的唯一依赖入口。
// 考勤不拥有会员生命周期，只负责解析编号是否有效。
type MemberDirectory interface {
	Resolve(memberID uint) (*db.Member, error)
}

// AttendanceService 负责入场/离场状态机与按天统计
// 同一会员最多一条未关闭记录由存储层的部分唯一索引保证；
// 并发入场时只有一方 INSERT 成功，另一方收到 ErrAlreadyCheckedIn。
// 所有日界划分统一使用构造时注入的场馆时区。
type AttendanceService struct {
	db      *gorm.DB
	members MemberDirectory
	loc     *time.Location
}

// DayStats 汇总单日考勤指标。
type DayStats struct {
	TotalCheckIns        int
	CurrentlyInGym       int
	AverageVisitDuration float64
}

// DaySnapshot 表示某个日界内的全部入场记录及统计。
type DaySnapshot struct {
	Date     time.Time
	CheckIns []db.AttendanceRecord
	Stats    DayStats
}

// DailyStat 表示趋势统计中的单日数据。
type DailyStat struct {
	Date          string
	Visits        int
	UniqueMembers int
}

// RangeStats 汇总最近 N 天的到访趋势。
type RangeStats struct {
	DailyStats []DailyStat
	Summary    RangeSummary
}

// RangeSummary 汇总区间总量。
type RangeSummary struct {
	TotalVisits int
}

// NewAttendanceService 构造 AttendanceService，loc 为空时回退到 UTC。
func NewAttendanceService(gdb *gorm.DB, members MemberDirectory, loc *time.Location) *AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{db: gdb, members: members, loc: loc}
}

// CheckIn 为会员创建一条未关闭的入场记录。
// 会员编号无法解析时返回 ErrUnknownMember；
// 会员已在馆内时返回 ErrAlreadyCheckedIn，状态不变。
func (s *AttendanceService) CheckIn(memberID uint, location, notes string, now time.Time) (*db.AttendanceRecord, error) {
	if !db.IsValidLocation(location) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLocation, location)
	}

	if _, err := s.members.Resolve(memberID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrUnknownMember
		}
		return nil, fmt.Errorf("resolve member: %w", err)
	}

	record := db.AttendanceRecord{
		MemberID:    memberID,
		CheckInTime: now,
		Location:    location,
		Notes:       strings.TrimSpace(notes),
	}

	// 条件插入：member_id 上的部分唯一索引（check_out_time IS NULL）
	// 使并发入场最多只有一条 INSERT 生效
	if err := s.db.Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("create attendance record: %w", err)
	}

	return &record, nil
}

// CheckOut 关闭会员当前未关闭的入场记录并计算时长。
// 记录不存在时返回 ErrNotCheckedIn；重复离场同样返回 ErrNotCheckedIn，绝不二次关闭。
func (s *AttendanceService) CheckOut(memberID uint, notes string, now time.Time) (*db.AttendanceRecord, error) {
	var record db.AttendanceRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ? AND check_out_time IS NULL", memberID).
			First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotCheckedIn
			}
			return fmt.Errorf("find open record: %w", err)
		}

		checkOut := now
		if checkOut.Before(record.CheckInTime) {
			checkOut = record.CheckInTime
		}
		minutes := int(checkOut.Sub(record.CheckInTime) / time.Minute)
		merged := mergeNotes(record.Notes, notes)

		// 带 check_out_time IS NULL 条件的 UPDATE 保证只关闭一次，
		// 两个并发离场只有一方 RowsAffected == 1
		result := tx.Model(&db.AttendanceRecord{}).
			Where("id = ? AND check_out_time IS NULL", record.ID).
			Updates(map[string]any{
				"check_out_time":   checkOut,
				"duration_minutes": minutes,
				"notes":            merged,
			})
		if result.Error != nil {
			return fmt.Errorf("close attendance record: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotCheckedIn
		}

		record.CheckOutTime = &checkOut
		record.DurationMinutes = &minutes
		record.Notes = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// DaySnapshot 返回给定日期所在日界内的全部入场记录及统计。
// 平均时长只统计已关闭的记录，未离场的记录不按零参与计算。
func (s *AttendanceService) DaySnapshot(date time.Time) (*DaySnapshot, error) {
	start := s.dayStart(date)
	end := start.AddDate(0, 0, 1)

	// sqlite 按 UTC 文本比较时间戳，查询边界必须先归一化到 UTC
	var records []db.AttendanceRecord
	if err := s.db.Where("check_in_time >= ? AND check_in_time < ?", start.UTC(), end.UTC()).
		Order("check_in_time DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list day attendance: %w", err)
	}

	snapshot := &DaySnapshot{Date: start, CheckIns: records}
	snapshot.Stats.TotalCheckIns = len(records)

	var totalMinutes, closed int
	for _, record := range records {
		if record.IsOpen() {
			snapshot.Stats.CurrentlyInGym++
			continue
		}
		if record.DurationMinutes != nil {
			totalMinutes += *record.DurationMinutes
			closed++
		}
	}
	if closed > 0 {
		snapshot.Stats.AverageVisitDuration = float64(totalMinutes) / float64(closed)
	}

	return snapshot, nil
}

// CurrentlyCheckedIn 返回全部未关闭的入场记录，跨天记录也计入。
// 没有自动离场策略，忘记打卡的会员会一直保留在结果中。
func (s *AttendanceService) CurrentlyCheckedIn() ([]db.AttendanceRecord, error) {
	var records []db.AttendanceRecord
	if err := s.db.Where("check_out_time IS NULL").
		Order("check_in_time ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list open records: %w", err)
	}
	return records, nil
}

// RangeStats 汇总截至 now 的最近 rangeDays 个日界的到访数据。
// 没有到访的日期补零；同一会员一天内多次入场按多次到访计数。
func (s *AttendanceService) RangeStats(rangeDays int, now time.Time) (*RangeStats, error) {
	if rangeDays <= 0 {
		rangeDays = 7
	}

	end := s.dayStart(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -rangeDays)

	var records []db.AttendanceRecord
	if err := s.db.Where("check_in_time >= ? AND check_in_time < ?", start.UTC(), end.UTC()).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list range attendance: %w", err)
	}

	visits := make(map[string]int, rangeDays)
	memberSets := make(map[string]map[uint]struct{}, rangeDays)
	for _, record := range records {
		key := record.CheckInTime.In(s.loc).Format(dateFormat)
		visits[key]++
		if memberSets[key] == nil {
			memberSets[key] = make(map[uint]struct{})
		}
		memberSets[key][record.MemberID] = struct{}{}
	}

	stats := &RangeStats{DailyStats: make([]DailyStat, 0, rangeDays)}
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateFormat)
		stats.DailyStats = append(stats.DailyStats, DailyStat{
			Date:          key,
			Visits:        visits[key],
			UniqueMembers: len(memberSets[key]),
		})
		stats.Summary.TotalVisits += visits[key]
	}

	return stats, nil
}

// MemberHistory 返回某会员最近的入场记录，供会员端查询。
func (s *AttendanceService) MemberHistory(memberID uint, limit int) ([]db.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 30
	}

	var records []db.AttendanceRecord
	if err := s.db.Where("member_id = ?", memberID).
		Order("check_in_time DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list member attendance: %w", err)
	}
	return records, nil
}

// Location 暴露场馆时区，供序列化层按同一日界展示时间。
func (s *AttendanceService) Location() *time.Location {
	return s.loc
}

func (s *AttendanceService) dayStart(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}

// mergeNotes 将离场备注追加到入场备注之后，保留原文。
func mergeNotes(existing, extra string) string {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return extra
	}
	return existing + "\n" + extra
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
