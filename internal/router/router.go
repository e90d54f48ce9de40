package router

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(sessionSecret, jwtSecret string, loc *time.Location) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("gymlog_session", store))

	api := handler.NewAPI(db.DB, loc, jwtSecret)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 后台管理接口
	admin := r.Group("/admin/api")
	{
		admin.POST("/login", api.StaffLogin)
		admin.POST("/logout", api.StaffLogout)

		// 需要认证的后台接口
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/dashboard", api.DashboardOverview)

			auth.POST("/attendance/checkin/:memberId", api.CheckInMember)
			auth.POST("/attendance/checkout/:memberId", api.CheckOutMember)
			auth.GET("/attendance/today", api.TodayAttendance)
			auth.GET("/attendance/current", api.CurrentAttendance)
			auth.GET("/attendance/stats", api.AttendanceStats)

			auth.GET("/members", api.ListMembers)
			auth.GET("/members/:id", api.GetMember)
			auth.POST("/members", api.CreateMember)
			auth.PUT("/members/:id", api.UpdateMember)
			auth.DELETE("/members/:id", api.DeleteMember)
			auth.POST("/members/:id/subscription", api.SubscribeMember)
			auth.GET("/members/:id/subscription", api.MemberSubscription)

			auth.GET("/equipment", api.ListEquipment)
			auth.GET("/equipment/:id", api.GetEquipment)
			auth.POST("/equipment", api.CreateEquipment)
			auth.PUT("/equipment/:id", api.UpdateEquipment)
			auth.POST("/equipment/:id/service", api.ServiceEquipment)
			auth.DELETE("/equipment/:id", api.DeleteEquipment)

			auth.GET("/payments", api.ListPayments)
			auth.POST("/payments", api.RecordPayment)
			auth.GET("/payments/revenue", api.MonthRevenue)

			auth.GET("/plans", api.ListPlans)
			auth.POST("/plans", api.CreatePlan)
			auth.PUT("/plans/:id", api.UpdatePlan)
			auth.DELETE("/plans/:id", api.DeletePlan)
			auth.POST("/subscriptions/expire", api.ExpireSubscriptions)

			auth.GET("/announcements", api.ListAnnouncements)
			auth.GET("/announcements/:id", api.GetAnnouncement)
			auth.POST("/announcements", api.CreateAnnouncement)
			auth.PUT("/announcements/:id", api.UpdateAnnouncement)
			auth.POST("/announcements/:id/publish", api.PublishAnnouncement)
			auth.DELETE("/announcements/:id", api.DeleteAnnouncement)

			auth.GET("/settings", api.GetGymSettings)
			auth.PUT("/settings", api.UpdateGymSettings)
		}
	}

	// 会员端接口
	portal := r.Group("/api/portal")
	{
		portal.POST("/login", api.PortalLogin)

		me := portal.Group("/me")
		me.Use(api.PortalAuthRequired())
		{
			me.GET("/profile", api.PortalProfile)
			me.GET("/attendance", api.PortalAttendanceHistory)
		}

		portal.GET("/announcements", api.PortalAnnouncements)
	}

	return r
}
