package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gymlog/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// ErrAnnouncementNotFound 在指定公告不存在时返回
var ErrAnnouncementNotFound = errors.New("announcement not found")

// AnnouncementService 负责场馆公告的管理与渲染
// 公告正文以 Markdown 存储，对外输出前经 goldmark 渲染并由 bluemonday 清洗
type AnnouncementService struct {
	db *gorm.DB
}

// AnnouncementInput 定义创建/更新公告时可配置字段
type AnnouncementInput struct {
	Title    string
	Body     string
	AuthorID uint
}

// NewAnnouncementService 构造 AnnouncementService
func NewAnnouncementService(gdb *gorm.DB) *AnnouncementService {
	return &AnnouncementService{db: gdb}
}

// List 返回公告集合，publishedOnly 为真时仅返回已发布的。
func (s *AnnouncementService) List(publishedOnly bool) ([]db.Announcement, error) {
	var items []db.Announcement

	query := s.db.Model(&db.Announcement{})
	if publishedOnly {
		query = query.Where("published_at IS NOT NULL")
	}

	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return items, nil
}

// Get 根据 ID 获取公告
func (s *AnnouncementService) Get(id uint) (*db.Announcement, error) {
	var item db.Announcement
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &item, nil
}

// Create 新建公告（草稿状态）
func (s *AnnouncementService) Create(input AnnouncementInput) (*db.Announcement, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("announcement title is required")
	}

	item := db.Announcement{
		Title:    strings.TrimSpace(input.Title),
		Body:     input.Body,
		AuthorID: input.AuthorID,
	}

	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return &item, nil
}

// Update 更新公告标题与正文
func (s *AnnouncementService) Update(id uint, input AnnouncementInput) (*db.Announcement, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("announcement title is required")
	}

	var existing db.Announcement
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Body = input.Body

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return &existing, nil
}

// Publish 将公告标记为已发布，重复发布保持首次发布时间。
func (s *AnnouncementService) Publish(id uint, now time.Time) (*db.Announcement, error) {
	var existing db.Announcement
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}

	if existing.PublishedAt == nil {
		existing.PublishedAt = &now
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("publish announcement: %w", err)
		}
	}
	return &existing, nil
}

// Delete 删除公告
func (s *AnnouncementService) Delete(id uint) error {
	if err := s.db.Delete(&db.Announcement{}, id).Error; err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return nil
}

// RenderHTML 将 Markdown 正文渲染为净化后的 HTML。
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return sanitizer.Sanitize(buf.String()), nil
}
