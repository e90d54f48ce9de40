package handler

import (
	"time"

	"github.com/gymlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	members       *service.MemberService
	attendance    *service.AttendanceService
	equipment     *service.EquipmentService
	payments      *service.PaymentService
	subscriptions *service.SubscriptionService
	announcements *service.AnnouncementService
	dashboard     *service.DashboardService
	settings      *service.GymSettingService
	loc           *time.Location
	jwtSecret     []byte
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, loc *time.Location, jwtSecret string) *API {
	if loc == nil {
		loc = time.UTC
	}

	members := service.NewMemberService(gdb)

	return &API{
		db:            gdb,
		members:       members,
		attendance:    service.NewAttendanceService(gdb, members, loc),
		equipment:     service.NewEquipmentService(gdb),
		payments:      service.NewPaymentService(gdb, members),
		subscriptions: service.NewSubscriptionService(gdb, members),
		announcements: service.NewAnnouncementService(gdb),
		dashboard:     service.NewDashboardService(gdb, loc),
		settings:      service.NewGymSettingService(gdb),
		loc:           loc,
		jwtSecret:     []byte(jwtSecret),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
