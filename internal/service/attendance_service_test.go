package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gymlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAttendanceTestDB(t *testing.T) func() {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Member{}, &db.AttendanceRecord{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// 共享内存库在多连接下可能出现表锁，串行化连接池
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db.DB = gdb

	return func() {
		sqlDB.Close()
	}
}

func seedMember(t *testing.T, email string) db.Member {
	t.Helper()
	member := db.Member{
		FullName:     "测试会员",
		Email:        email,
		MemberNumber: db.NewMemberNumber(),
		Status:       db.MemberStatusActive,
		JoinedAt:     time.Now(),
	}
	if err := db.DB.Create(&member).Error; err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}
	return member
}

func newTestAttendanceService() *AttendanceService {
	return NewAttendanceService(db.DB, NewMemberService(db.DB), time.UTC)
}

func TestCheckInCreatesOpenRecord(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	record, err := svc.CheckIn(member.ID, db.LocationMainGym, "", time.Now())
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	if record.ID == 0 {
		t.Fatal("expected record to have ID")
	}
	if !record.IsOpen() {
		t.Fatal("expected record to be open after check-in")
	}
	if record.DurationMinutes != nil {
		t.Fatal("expected duration to be absent while open")
	}

	open, err := svc.CurrentlyCheckedIn()
	if err != nil {
		t.Fatalf("CurrentlyCheckedIn returned error: %v", err)
	}
	if len(open) != 1 || open[0].MemberID != member.ID {
		t.Fatalf("expected exactly one open record for member, got %d", len(open))
	}
}

func TestCheckInUnknownMember(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	svc := newTestAttendanceService()

	if _, err := svc.CheckIn(999, db.LocationMainGym, "", time.Now()); !errors.Is(err, ErrUnknownMember) {
		t.Fatalf("expected ErrUnknownMember, got %v", err)
	}
}

func TestCheckInInvalidLocation(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	if _, err := svc.CheckIn(member.ID, "Parking Lot", "", time.Now()); !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestCheckInTwiceFails(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	if _, err := svc.CheckIn(member.ID, db.LocationMainGym, "", time.Now()); err != nil {
		t.Fatalf("first CheckIn returned error: %v", err)
	}

	if _, err := svc.CheckIn(member.ID, db.LocationPool, "", time.Now()); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}

	// 状态不变：仍然只有一条未关闭记录
	var count int64
	if err := db.DB.Model(&db.AttendanceRecord{}).
		Where("member_id = ? AND check_out_time IS NULL", member.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count open records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 open record, got %d", count)
	}
}

func TestCheckOutComputesFlooredDuration(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	checkIn := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if _, err := svc.CheckIn(member.ID, db.LocationMainGym, "", checkIn); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	record, err := svc.CheckOut(member.ID, "", checkIn.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("CheckOut returned error: %v", err)
	}

	if record.CheckOutTime == nil {
		t.Fatal("expected check-out time to be set")
	}
	if record.DurationMinutes == nil || *record.DurationMinutes != 45 {
		t.Fatalf("expected duration 45, got %v", record.DurationMinutes)
	}

	open, err := svc.CurrentlyCheckedIn()
	if err != nil {
		t.Fatalf("CurrentlyCheckedIn returned error: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open records after checkout, got %d", len(open))
	}
}

func TestCheckOutFloorsPartialMinute(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	checkIn := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if _, err := svc.CheckIn(member.ID, db.LocationCardioArea, "", checkIn); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	// 119 秒向下取整为 1 分钟
	record, err := svc.CheckOut(member.ID, "", checkIn.Add(119*time.Second))
	if err != nil {
		t.Fatalf("CheckOut returned error: %v", err)
	}
	if record.DurationMinutes == nil || *record.DurationMinutes != 1 {
		t.Fatalf("expected duration 1, got %v", record.DurationMinutes)
	}
}

func TestCheckOutTwiceFails(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	if _, err := svc.CheckIn(member.ID, db.LocationMainGym, "", time.Now()); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	first, err := svc.CheckOut(member.ID, "", time.Now())
	if err != nil {
		t.Fatalf("first CheckOut returned error: %v", err)
	}

	if _, err := svc.CheckOut(member.ID, "", time.Now()); !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("expected ErrNotCheckedIn, got %v", err)
	}

	// 已关闭的记录不再改写
	var reloaded db.AttendanceRecord
	if err := db.DB.First(&reloaded, first.ID).Error; err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if reloaded.CheckOutTime == nil || !reloaded.CheckOutTime.Equal(*first.CheckOutTime) {
		t.Fatal("expected check-out time to stay unchanged")
	}
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	if _, err := svc.CheckOut(member.ID, "", time.Now()); !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("expected ErrNotCheckedIn, got %v", err)
	}
}

func TestCheckOutAppendsNotes(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	if _, err := svc.CheckIn(member.ID, db.LocationMainGym, "热身课", time.Now()); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	record, err := svc.CheckOut(member.ID, "拉伸后离场", time.Now())
	if err != nil {
		t.Fatalf("CheckOut returned error: %v", err)
	}

	if record.Notes != "热身课\n拉伸后离场" {
		t.Fatalf("expected notes to be appended, got %q", record.Notes)
	}
}

func TestConcurrentCheckInSingleWinner(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	member := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	const workers = 8

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(member.ID, db.LocationMainGym, "", time.Now())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyCheckedIn):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful check-in, got %d", successes)
	}
	if conflicts != workers-1 {
		t.Fatalf("expected %d conflicts, got %d", workers-1, conflicts)
	}

	var count int64
	if err := db.DB.Model(&db.AttendanceRecord{}).
		Where("member_id = ? AND check_out_time IS NULL", member.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count open records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 open record, got %d", count)
	}
}

func TestDaySnapshotStats(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	m1 := seedMember(t, "m1@example.com")
	m2 := seedMember(t, "m2@example.com")
	svc := newTestAttendanceService()

	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	if _, err := svc.CheckIn(m1.ID, db.LocationMainGym, "", day); err != nil {
		t.Fatalf("CheckIn m1 returned error: %v", err)
	}
	if _, err := svc.CheckIn(m2.ID, db.LocationPool, "", day.Add(time.Hour)); err != nil {
		t.Fatalf("CheckIn m2 returned error: %v", err)
	}
	if _, err := svc.CheckOut(m1.ID, "", day.Add(40*time.Minute)); err != nil {
		t.Fatalf("CheckOut m1 returned error: %v", err)
	}

	snapshot, err := svc.DaySnapshot(day)
	if err != nil {
		t.Fatalf("DaySnapshot returned error: %v", err)
	}

	if snapshot.Stats.TotalCheckIns != 2 {
		t.Fatalf("expected 2 check-ins, got %d", snapshot.Stats.TotalCheckIns)
	}
	if snapshot.Stats.CurrentlyInGym != 1 {
		t.Fatalf("expected 1 currently in gym, got %d", snapshot.Stats.CurrentlyInGym)
	}
	// 平均时长只统计已关闭的记录
	if snapshot.Stats.AverageVisitDuration != 40 {
		t.Fatalf("expected average 40, got %v", snapshot.Stats.AverageVisitDuration)
	}
}

func TestDayBucketBoundary(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	m1 := seedMember(t, "m1@example.com")
	m2 := seedMember(t, "m2@example.com")
	svc := newTestAttendanceService()

	late := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)

	if _, err := svc.CheckIn(m1.ID, db.LocationMainGym, "", late); err != nil {
		t.Fatalf("CheckIn m1 returned error: %v", err)
	}
	if _, err := svc.CheckIn(m2.ID, db.LocationMainGym, "", early); err != nil {
		t.Fatalf("CheckIn m2 returned error: %v", err)
	}

	day1, err := svc.DaySnapshot(late)
	if err != nil {
		t.Fatalf("DaySnapshot returned error: %v", err)
	}
	day2, err := svc.DaySnapshot(early)
	if err != nil {
		t.Fatalf("DaySnapshot returned error: %v", err)
	}

	if day1.Stats.TotalCheckIns != 1 || day1.CheckIns[0].MemberID != m1.ID {
		t.Fatalf("expected day1 to contain only m1, got %d check-ins", day1.Stats.TotalCheckIns)
	}
	if day2.Stats.TotalCheckIns != 1 || day2.CheckIns[0].MemberID != m2.ID {
		t.Fatalf("expected day2 to contain only m2, got %d check-ins", day2.Stats.TotalCheckIns)
	}

	// 趋势统计使用同一日界
	stats, err := svc.RangeStats(7, early)
	if err != nil {
		t.Fatalf("RangeStats returned error: %v", err)
	}
	byDate := make(map[string]DailyStat)
	for _, day := range stats.DailyStats {
		byDate[day.Date] = day
	}
	if byDate["2024-03-01"].Visits != 1 || byDate["2024-03-02"].Visits != 1 {
		t.Fatalf("expected one visit on each side of the boundary, got %+v", stats.DailyStats)
	}
}

func TestDayBucketNonUTCTimezone(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	m1 := seedMember(t, "m1@example.com")

	// UTC+8 场馆：UTC 3/1 17:00 已是本地 3/2 01:00
	loc := time.FixedZone("UTC+8", 8*3600)
	svc := NewAttendanceService(db.DB, NewMemberService(db.DB), loc)

	checkIn := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	if _, err := svc.CheckIn(m1.ID, db.LocationMainGym, "", checkIn); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	localDay2 := time.Date(2024, 3, 2, 12, 0, 0, 0, loc)
	day2, err := svc.DaySnapshot(localDay2)
	if err != nil {
		t.Fatalf("DaySnapshot returned error: %v", err)
	}
	if day2.Stats.TotalCheckIns != 1 {
		t.Fatalf("expected check-in bucketed to local 3/2, got %d", day2.Stats.TotalCheckIns)
	}

	localDay1 := time.Date(2024, 3, 1, 12, 0, 0, 0, loc)
	day1, err := svc.DaySnapshot(localDay1)
	if err != nil {
		t.Fatalf("DaySnapshot returned error: %v", err)
	}
	if day1.Stats.TotalCheckIns != 0 {
		t.Fatalf("expected local 3/1 to be empty, got %d", day1.Stats.TotalCheckIns)
	}

	// 趋势统计按同一本地日界分桶
	stats, err := svc.RangeStats(3, localDay2)
	if err != nil {
		t.Fatalf("RangeStats returned error: %v", err)
	}
	byDate := make(map[string]DailyStat)
	for _, day := range stats.DailyStats {
		byDate[day.Date] = day
	}
	if byDate["2024-03-02"].Visits != 1 || byDate["2024-03-01"].Visits != 0 {
		t.Fatalf("expected visit under local 2024-03-02, got %+v", stats.DailyStats)
	}
	if stats.Summary.TotalVisits != 1 {
		t.Fatalf("expected 1 total visit, got %d", stats.Summary.TotalVisits)
	}
}

func TestRangeStatsZeroFill(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	m1 := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	now := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

	// 三个不同日期各一次完整到访，其中一天两次
	visits := []time.Time{
		now.AddDate(0, 0, -6),
		now.AddDate(0, 0, -3),
		now.AddDate(0, 0, -3).Add(3 * time.Hour),
		now.AddDate(0, 0, -1),
	}
	for _, ts := range visits {
		if _, err := svc.CheckIn(m1.ID, db.LocationMainGym, "", ts); err != nil {
			t.Fatalf("CheckIn returned error: %v", err)
		}
		if _, err := svc.CheckOut(m1.ID, "", ts.Add(30*time.Minute)); err != nil {
			t.Fatalf("CheckOut returned error: %v", err)
		}
	}

	stats, err := svc.RangeStats(7, now)
	if err != nil {
		t.Fatalf("RangeStats returned error: %v", err)
	}

	if len(stats.DailyStats) != 7 {
		t.Fatalf("expected 7 daily entries, got %d", len(stats.DailyStats))
	}
	if stats.Summary.TotalVisits != 4 {
		t.Fatalf("expected 4 total visits, got %d", stats.Summary.TotalVisits)
	}

	var nonzeroDays, zeroDays int
	for _, day := range stats.DailyStats {
		if day.Visits > 0 {
			nonzeroDays++
			if day.UniqueMembers != 1 {
				t.Fatalf("expected 1 unique member on %s, got %d", day.Date, day.UniqueMembers)
			}
		} else {
			zeroDays++
			if day.UniqueMembers != 0 {
				t.Fatalf("expected 0 unique members on %s", day.Date)
			}
		}
	}
	if nonzeroDays != 3 || zeroDays != 4 {
		t.Fatalf("expected 3 active days and 4 zero days, got %d/%d", nonzeroDays, zeroDays)
	}
}

func TestCurrentlyCheckedInSpansDays(t *testing.T) {
	cleanup := setupAttendanceTestDB(t)
	defer cleanup()

	m1 := seedMember(t, "m1@example.com")
	svc := newTestAttendanceService()

	// 昨天入场且从未离场的会员仍视为在馆
	yesterday := time.Now().AddDate(0, 0, -1)
	if _, err := svc.CheckIn(m1.ID, db.LocationMainGym, "", yesterday); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	open, err := svc.CurrentlyCheckedIn()
	if err != nil {
		t.Fatalf("CurrentlyCheckedIn returned error: %v", err)
	}
	if len(open) != 1 || open[0].MemberID != m1.ID {
		t.Fatalf("expected member to remain checked in across days, got %d records", len(open))
	}
}

func TestMergeNotes(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		extra    string
		want     string
	}{
		{name: "both empty", existing: "", extra: "", want: ""},
		{name: "only existing", existing: "原有备注", extra: "", want: "原有备注"},
		{name: "only extra", existing: "", extra: "新备注", want: "新备注"},
		{name: "appended", existing: "原有备注", extra: "新备注", want: "原有备注\n新备注"},
		{name: "extra trimmed", existing: "原有备注", extra: "  新备注  ", want: "原有备注\n新备注"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeNotes(tt.existing, tt.extra)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
