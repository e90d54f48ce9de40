package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gymlog/internal/config"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/service"
)

// 演示数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	if err := db.EnsureRootAdmin("admin", "admin123"); err != nil {
		log.Fatal("创建管理员失败:", err)
	}

	members := createDemoMembers()
	createDemoPlans()
	createDemoEquipment()
	createDemoAttendance(members, cfg.Location())

	fmt.Println("演示数据生成完成！")
	fmt.Println("管理员: admin (密码: admin123)")
	fmt.Printf("会员: %d 名（密码均为 member123）\n", len(members))
}

func createDemoMembers() []db.Member {
	svc := service.NewMemberService(db.DB)

	inputs := []service.MemberInput{
		{FullName: "王晓明", Email: "xiaoming@example.com", Phone: "13800000001", Password: "member123"},
		{FullName: "李静", Email: "lijing@example.com", Phone: "13800000002", Password: "member123"},
		{FullName: "张伟", Email: "zhangwei@example.com", Phone: "13800000003", Password: "member123"},
		{FullName: "陈璐", Email: "chenlu@example.com", Phone: "13800000004", Password: "member123", Status: "inactive"},
	}

	members := make([]db.Member, 0, len(inputs))
	for _, input := range inputs {
		member, err := svc.Create(input)
		if err != nil {
			// 重复执行时邮箱已存在，直接复用
			existing, getErr := svc.GetByEmail(input.Email)
			if getErr != nil {
				log.Fatal("创建会员失败:", err)
			}
			members = append(members, *existing)
			continue
		}
		members = append(members, *member)
	}

	return members
}

func createDemoPlans() {
	members := service.NewMemberService(db.DB)
	svc := service.NewSubscriptionService(db.DB, members)

	inputs := []service.PlanInput{
		{Name: "月卡", Description: "30 天不限次入场", PriceCents: 19900, DurationMonths: 1},
		{Name: "季卡", Description: "含一次体测", PriceCents: 49900, DurationMonths: 3},
		{Name: "年卡", Description: "含四次私教体验", PriceCents: 159900, DurationMonths: 12},
	}

	for _, input := range inputs {
		if _, err := svc.CreatePlan(input); err != nil {
			// 重复执行时套餐已存在，跳过
			continue
		}
	}
}

func createDemoEquipment() {
	svc := service.NewEquipmentService(db.DB)

	purchased := time.Now().AddDate(-1, 0, 0)
	inputs := []service.EquipmentInput{
		{Name: "跑步机 A1", Category: "cardio", PurchasedAt: &purchased},
		{Name: "椭圆机 B2", Category: "cardio", PurchasedAt: &purchased},
		{Name: "深蹲架", Category: "strength", Status: "maintenance", PurchasedAt: &purchased},
	}

	for _, input := range inputs {
		if _, err := svc.Create(input); err != nil {
			log.Fatal("创建器械失败:", err)
		}
	}
}

func createDemoAttendance(members []db.Member, loc *time.Location) {
	memberSvc := service.NewMemberService(db.DB)
	svc := service.NewAttendanceService(db.DB, memberSvc, loc)

	if len(members) < 2 {
		return
	}

	// 昨天的一次完整到访
	yesterday := time.Now().AddDate(0, 0, -1).Add(-2 * time.Hour)
	if _, err := svc.CheckIn(members[0].ID, db.LocationMainGym, "", yesterday); err == nil {
		if _, err := svc.CheckOut(members[0].ID, "训练结束", yesterday.Add(75*time.Minute)); err != nil {
			log.Fatal("生成离场记录失败:", err)
		}
	}

	// 今天一位会员仍在馆内
	if _, err := svc.CheckIn(members[1].ID, db.LocationWeightRoom, "", time.Now().Add(-30*time.Minute)); err != nil {
		fmt.Println("入场记录已存在，跳过")
	}
}
