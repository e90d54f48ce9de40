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
	// ErrPlanNotFound 在指定套餐不存在时返回
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrPlanInvalidInput 在套餐配置非法时返回
	ErrPlanInvalidInput = errors.New("invalid subscription plan input")
	// ErrSubscriptionNotFound 在会员没有生效订阅时返回
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SubscriptionService 负责套餐与会员订阅
type SubscriptionService struct {
	db      *gorm.DB
	members MemberDirectory
}

// PlanInput 定义创建/更新套餐时可配置字段
type PlanInput struct {
	Name           string
	Description    string
	PriceCents     int64
	DurationMonths int
}

// NewSubscriptionService 构造 SubscriptionService
func NewSubscriptionService(gdb *gorm.DB, members MemberDirectory) *SubscriptionService {
	return &SubscriptionService{db: gdb, members: members}
}

// ListPlans 返回全部套餐
func (s *SubscriptionService) ListPlans() ([]db.SubscriptionPlan, error) {
	var plans []db.SubscriptionPlan
	if err := s.db.Order("price_cents ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// GetPlan 根据 ID 获取套餐
func (s *SubscriptionService) GetPlan(id uint) (*db.SubscriptionPlan, error) {
	var plan db.SubscriptionPlan
	if err := s.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}

// CreatePlan 新建套餐
func (s *SubscriptionService) CreatePlan(input PlanInput) (*db.SubscriptionPlan, error) {
	if err := validatePlanInput(input); err != nil {
		return nil, err
	}

	plan := db.SubscriptionPlan{
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		PriceCents:     input.PriceCents,
		DurationMonths: input.DurationMonths,
	}

	if err := s.db.Create(&plan).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: name already taken", ErrPlanInvalidInput)
		}
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return &plan, nil
}

// UpdatePlan 更新套餐，已开通的订阅不受影响
func (s *SubscriptionService) UpdatePlan(id uint, input PlanInput) (*db.SubscriptionPlan, error) {
	if err := validatePlanInput(input); err != nil {
		return nil, err
	}

	var existing db.SubscriptionPlan
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.PriceCents = input.PriceCents
	existing.DurationMonths = input.DurationMonths

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return &existing, nil
}

// DeletePlan 删除套餐
func (s *SubscriptionService) DeletePlan(id uint) error {
	if err := s.db.Delete(&db.SubscriptionPlan{}, id).Error; err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

// Subscribe 为会员开通套餐订阅。
// 已有生效订阅时先停用旧订阅再写入新订阅，整个替换在同一事务内完成。
func (s *SubscriptionService) Subscribe(memberID, planID uint, startsAt time.Time) (*db.MemberSubscription, error) {
	if _, err := s.members.Resolve(memberID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("resolve member: %w", err)
	}

	plan, err := s.GetPlan(planID)
	if err != nil {
		return nil, err
	}

	if startsAt.IsZero() {
		startsAt = time.Now()
	}

	subscription := db.MemberSubscription{
		MemberID:  memberID,
		PlanID:    plan.ID,
		StartsAt:  startsAt,
		ExpiresAt: startsAt.AddDate(0, plan.DurationMonths, 0),
		Active:    true,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.MemberSubscription{}).
			Where("member_id = ? AND active", memberID).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate previous subscription: %w", err)
		}
		if err := tx.Create(&subscription).Error; err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &subscription, nil
}

// ActiveSubscription 返回会员当前生效的订阅
func (s *SubscriptionService) ActiveSubscription(memberID uint) (*db.MemberSubscription, error) {
	var subscription db.MemberSubscription
	if err := s.db.Preload("Plan").
		Where("member_id = ? AND active", memberID).
		First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	return &subscription, nil
}

// ExpireDue 将到期的生效订阅批量停用，返回停用条数。
// 该操作是独立的维护动作，由后台显式触发，不隐藏在其他写路径里。
func (s *SubscriptionService) ExpireDue(now time.Time) (int64, error) {
	result := s.db.Model(&db.MemberSubscription{}).
		Where("active AND expires_at < ?", now).
		Update("active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountActive 统计当前生效的订阅数
func (s *SubscriptionService) CountActive() (int64, error) {
	var count int64
	if err := s.db.Model(&db.MemberSubscription{}).Where("active").Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active subscriptions: %w", err)
	}
	return count, nil
}

func validatePlanInput(input PlanInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrPlanInvalidInput)
	}
	if input.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrPlanInvalidInput)
	}
	if input.DurationMonths <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrPlanInvalidInput)
	}
	return nil
}
