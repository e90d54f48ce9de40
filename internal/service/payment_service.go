package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gymlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrPaymentNotFound 在指定缴费记录不存在时返回
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentInvalidInput 在金额或支付方式非法时返回
	ErrPaymentInvalidInput = errors.New("invalid payment input")
)

// PaymentService 负责会员缴费流水
type PaymentService struct {
	db      *gorm.DB
	members MemberDirectory
}

// PaymentInput 定义记账时的输入对象
type PaymentInput struct {
	MemberID    uint
	AmountCents int64
	Method      string
	PaidAt      time.Time
	Description string
}

// PaymentFilter 描述流水查询条件
type PaymentFilter struct {
	MemberID uint
	Start    time.Time
	End      time.Time
}

// MonthlyRevenue 汇总某自然月的营收
type MonthlyRevenue struct {
	Year       int
	Month      time.Month
	TotalCents int64
	Count      int64
}

// NewPaymentService 构造 PaymentService
func NewPaymentService(gdb *gorm.DB, members MemberDirectory) *PaymentService {
	return &PaymentService{db: gdb, members: members}
}

// Record 为会员记录一笔缴费，自动生成流水号。
func (s *PaymentService) Record(input PaymentInput) (*db.Payment, error) {
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrPaymentInvalidInput)
	}
	method, err := normalizePaymentMethod(input.Method)
	if err != nil {
		return nil, err
	}

	if _, err := s.members.Resolve(input.MemberID); err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("resolve member: %w", err)
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	payment := db.Payment{
		MemberID:    input.MemberID,
		AmountCents: input.AmountCents,
		Method:      method,
		Reference:   newPaymentReference(),
		PaidAt:      paidAt,
		Description: strings.TrimSpace(input.Description),
	}

	if err := s.db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return &payment, nil
}

// Get 根据 ID 获取缴费记录
func (s *PaymentService) Get(id uint) (*db.Payment, error) {
	var payment db.Payment
	if err := s.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &payment, nil
}

// List 返回流水集合，支持按会员与时间区间过滤
func (s *PaymentService) List(filter PaymentFilter) ([]db.Payment, error) {
	var payments []db.Payment

	query := s.db.Model(&db.Payment{})

	if filter.MemberID != 0 {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if !filter.Start.IsZero() {
		query = query.Where("paid_at >= ?", filter.Start.UTC())
	}
	if !filter.End.IsZero() {
		query = query.Where("paid_at < ?", filter.End.UTC())
	}

	if err := query.Order("paid_at DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return payments, nil
}

// MonthRevenue 汇总给定时刻所在自然月（按 loc 时区）的营收。
func (s *PaymentService) MonthRevenue(now time.Time, loc *time.Location) (*MonthlyRevenue, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	// sqlite 按 UTC 文本比较时间戳，月界边界先归一化到 UTC
	var totals struct {
		TotalCents int64
		Count      int64
	}
	if err := s.db.Model(&db.Payment{}).
		Select("COALESCE(SUM(amount_cents), 0) AS total_cents, COUNT(*) AS count").
		Where("paid_at >= ? AND paid_at < ?", start.UTC(), end.UTC()).
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("sum month revenue: %w", err)
	}

	return &MonthlyRevenue{
		Year:       local.Year(),
		Month:      local.Month(),
		TotalCents: totals.TotalCents,
		Count:      totals.Count,
	}, nil
}

func normalizePaymentMethod(method string) (string, error) {
	method = strings.TrimSpace(strings.ToLower(method))
	switch method {
	case db.PaymentMethodCash, db.PaymentMethodCard, db.PaymentMethodTransfer:
		return method, nil
	default:
		return "", fmt.Errorf("%w: unsupported method %s", ErrPaymentInvalidInput, method)
	}
}

func newPaymentReference() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:12])
}
