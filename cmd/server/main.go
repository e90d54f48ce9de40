package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gymlog/internal/config"
	"github.com/gymlog/internal/db"
	"github.com/gymlog/internal/router"
)

func main() {
	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 按需创建超级管理员账号
	if err := db.EnsureRootAdmin(cfg.RootAdminUserName, cfg.RootAdminPassword); err != nil {
		log.Fatalf("failed to ensure root admin: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg.SessionSecret, cfg.JWTSecret, cfg.Location())
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
