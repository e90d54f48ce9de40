package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gymlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrEquipmentNotFound 在指定器械不存在时返回
	ErrEquipmentNotFound = errors.New("equipment not found")
	// ErrEquipmentInvalidStatus 在状态不在枚举内时返回
	ErrEquipmentInvalidStatus = errors.New("invalid equipment status")
)

// EquipmentService 负责器械台账的增删改查
type EquipmentService struct {
	db *gorm.DB
}

// EquipmentFilter 描述后台列表过滤条件
type EquipmentFilter struct {
	Status   string
	Category string
	Search   string
}

// EquipmentInput 定义创建/更新器械时可配置字段
type EquipmentInput struct {
	Name           string
	Category       string
	Status         string
	PurchasedAt    *time.Time
	LastServicedAt *time.Time
	Notes          string
}

// NewEquipmentService 构造 EquipmentService
func NewEquipmentService(gdb *gorm.DB) *EquipmentService {
	return &EquipmentService{db: gdb}
}

// List 返回器械集合，支持状态/分类过滤与关键词搜索
func (s *EquipmentService) List(filter EquipmentFilter) ([]db.Equipment, error) {
	var items []db.Equipment

	query := s.db.Model(&db.Equipment{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR notes LIKE ?", like, like)
	}

	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}

	return items, nil
}

// Get 根据 ID 获取器械
func (s *EquipmentService) Get(id uint) (*db.Equipment, error) {
	var item db.Equipment
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("get equipment: %w", err)
	}
	return &item, nil
}

// Create 新建器械
func (s *EquipmentService) Create(input EquipmentInput) (*db.Equipment, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("equipment name is required")
	}
	status, err := normalizeEquipmentStatus(input.Status)
	if err != nil {
		return nil, err
	}

	item := db.Equipment{
		Name:           strings.TrimSpace(input.Name),
		Category:       strings.TrimSpace(input.Category),
		Status:         status,
		PurchasedAt:    input.PurchasedAt,
		LastServicedAt: input.LastServicedAt,
		Notes:          strings.TrimSpace(input.Notes),
	}

	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	return &item, nil
}

// Update 更新器械
func (s *EquipmentService) Update(id uint, input EquipmentInput) (*db.Equipment, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("equipment name is required")
	}
	status, err := normalizeEquipmentStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var existing db.Equipment
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("find equipment: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Category = strings.TrimSpace(input.Category)
	existing.Status = status
	existing.PurchasedAt = input.PurchasedAt
	existing.LastServicedAt = input.LastServicedAt
	existing.Notes = strings.TrimSpace(input.Notes)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	return &existing, nil
}

// MarkServiced 记录一次保养并将器械恢复为可用状态。
func (s *EquipmentService) MarkServiced(id uint, servicedAt time.Time) (*db.Equipment, error) {
	var existing db.Equipment
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("find equipment: %w", err)
	}

	existing.LastServicedAt = &servicedAt
	existing.Status = db.EquipmentStatusOperational

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("mark equipment serviced: %w", err)
	}
	return &existing, nil
}

// Delete 删除器械
func (s *EquipmentService) Delete(id uint) error {
	if err := s.db.Delete(&db.Equipment{}, id).Error; err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return nil
}

func normalizeEquipmentStatus(status string) (string, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	switch status {
	case "":
		return db.EquipmentStatusOperational, nil
	case db.EquipmentStatusOperational, db.EquipmentStatusMaintenance, db.EquipmentStatusRetired:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrEquipmentInvalidStatus, status)
	}
}
