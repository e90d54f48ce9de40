package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/service"
)

const dateFormat = "2006-01-02"

type checkInPayload struct {
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

type checkOutPayload struct {
	Notes string `json:"notes"`
}

// CheckInMember 为会员办理入场
func (a *API) CheckInMember(c *gin.Context) {
	memberID, err := parseUintParam(c, "memberId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	var payload checkInPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	record, err := a.attendance.CheckIn(memberID, payload.Location, payload.Notes, time.Now())
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"record": a.serializeAttendanceRecord(*record)})
}

// CheckOutMember 为会员办理离场
func (a *API) CheckOutMember(c *gin.Context) {
	memberID, err := parseUintParam(c, "memberId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的会员ID")
		return
	}

	var payload checkOutPayload
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	}

	record, err := a.attendance.CheckOut(memberID, payload.Notes, time.Now())
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"record": a.serializeAttendanceRecord(*record)})
}

// TodayAttendance 返回今日入场记录与统计
func (a *API) TodayAttendance(c *gin.Context) {
	snapshot, err := a.attendance.DaySnapshot(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取今日考勤失败")
		return
	}

	checkIns := a.serializeAttendanceRecords(snapshot.CheckIns)
	respondSuccess(c, http.StatusOK, gin.H{
		"date":     snapshot.Date.Format(dateFormat),
		"checkIns": checkIns,
		// 历史前端同时读取 attendance 字段，保持两个键名
		"attendance": checkIns,
		"stats": gin.H{
			"totalCheckIns":        snapshot.Stats.TotalCheckIns,
			"currentlyInGym":       snapshot.Stats.CurrentlyInGym,
			"averageVisitDuration": snapshot.Stats.AverageVisitDuration,
		},
	})
}

// CurrentAttendance 返回当前在馆的全部记录
func (a *API) CurrentAttendance(c *gin.Context) {
	records, err := a.attendance.CurrentlyCheckedIn()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取在馆名单失败")
		return
	}

	respondSuccess(c, http.StatusOK, a.serializeAttendanceRecords(records))
}

// AttendanceStats 返回最近 N 天的到访趋势
func (a *API) AttendanceStats(c *gin.Context) {
	days := parseIntQuery(c, "days", 7)

	stats, err := a.attendance.RangeStats(days, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取考勤统计失败")
		return
	}

	dailyStats := make([]gin.H, 0, len(stats.DailyStats))
	for _, day := range stats.DailyStats {
		dailyStats = append(dailyStats, gin.H{
			"date":          day.Date,
			"visits":        day.Visits,
			"uniqueMembers": day.UniqueMembers,
		})
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"dailyStats": dailyStats,
		"summary":    gin.H{"totalVisits": stats.Summary.TotalVisits},
	})
}

func (a *API) serializeAttendanceRecord(record db.AttendanceRecord) gin.H {
	item := gin.H{
		"id":          record.ID,
		"memberId":    record.MemberID,
		"checkInTime": record.CheckInTime.In(a.loc).Format(time.RFC3339),
		"location":    record.Location,
		"notes":       record.Notes,
	}
	if record.CheckOutTime != nil {
		item["checkOutTime"] = record.CheckOutTime.In(a.loc).Format(time.RFC3339)
	}
	if record.DurationMinutes != nil {
		item["durationMinutes"] = *record.DurationMinutes
	}
	return item
}

func (a *API) serializeAttendanceRecords(records []db.AttendanceRecord) []gin.H {
	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, a.serializeAttendanceRecord(record))
	}
	return items
}

func handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownMember):
		respondError(c, http.StatusNotFound, "会员不存在")
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		respondError(c, http.StatusConflict, "会员已在馆内，请勿重复入场")
	case errors.Is(err, service.ErrNotCheckedIn):
		respondError(c, http.StatusConflict, "会员当前不在馆内")
	case errors.Is(err, service.ErrInvalidLocation):
		respondError(c, http.StatusBadRequest, "无效的入场区域")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
