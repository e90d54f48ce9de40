package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	JWTSecret         string
	GinMode           string
	GymTimezone       string
	RootAdminUserName string
	RootAdminPassword string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 若工作目录存在 .env 文件则先行加载，便于本地开发。
func Load() AppConfig {
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "gymlog.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "gymlog-dev-secret"
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = "gymlog-dev-jwt-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	// 场馆统一时区：所有按天统计均以此时区划分日界
	gymTimezone := strings.TrimSpace(os.Getenv("GYM_TIMEZONE"))
	if gymTimezone == "" {
		gymTimezone = "UTC"
	}

	rootAdminUserName := strings.TrimSpace(os.Getenv("ROOT_ADMIN_USERNAME"))
	rootAdminPassword := strings.TrimSpace(os.Getenv("ROOT_ADMIN_PASSWORD"))

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		JWTSecret:         jwtSecret,
		GinMode:           ginMode,
		GymTimezone:       gymTimezone,
		RootAdminUserName: rootAdminUserName,
		RootAdminPassword: rootAdminPassword,
	}
}

// Location 将配置的时区名解析为 *time.Location，解析失败时回退到 UTC。
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.GymTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
