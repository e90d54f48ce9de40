package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/service"
)

// DashboardOverview 返回后台首页的运营指标
func (a *API) DashboardOverview(c *gin.Context) {
	overview, err := a.dashboard.Overview(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取运营指标失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"totalMembers":           overview.TotalMembers,
		"activeMembers":          overview.ActiveMembers,
		"todayCheckIns":          overview.TodayCheckIns,
		"currentlyInGym":         overview.CurrentlyInGym,
		"monthRevenueCents":      overview.MonthRevenueCents,
		"equipmentInMaintenance": overview.EquipmentInMaintenance,
		"activeSubscriptions":    overview.ActiveSubscriptions,
	})
}

type gymSettingsPayload struct {
	GymName      string `json:"gymName"`
	ContactEmail string `json:"contactEmail"`
	OpeningHours string `json:"openingHours"`
}

// GetGymSettings 返回场馆设置
func (a *API) GetGymSettings(c *gin.Context) {
	settings, err := a.settings.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取场馆设置失败")
		return
	}

	respondSuccess(c, http.StatusOK, serializeGymSettings(settings))
}

// UpdateGymSettings 更新场馆设置
func (a *API) UpdateGymSettings(c *gin.Context) {
	var payload gymSettingsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	settings, err := a.settings.UpdateSettings(service.GymSettingsInput{
		GymName:      payload.GymName,
		ContactEmail: payload.ContactEmail,
		OpeningHours: payload.OpeningHours,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存场馆设置失败")
		return
	}

	respondSuccess(c, http.StatusOK, serializeGymSettings(settings))
}

func serializeGymSettings(settings service.GymSettings) gin.H {
	return gin.H{
		"gymName":      settings.GymName,
		"contactEmail": settings.ContactEmail,
		"openingHours": settings.OpeningHours,
	}
}
