package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gymlog/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrMemberNotFound 在指定会员不存在时返回
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberEmailTaken 在邮箱已被占用时返回
	ErrMemberEmailTaken = errors.New("member email already taken")
	// ErrMemberInvalidInput 在会员资料不完整时返回
	ErrMemberInvalidInput = errors.New("invalid member input")
)

// MemberService 负责会员档案的增删改查，同时充当考勤模块的会员目录。
type MemberService struct {
	db *gorm.DB
}

// MemberFilter 描述后台列表过滤条件
type MemberFilter struct {
	Status string
	Search string
}

// MemberInput 定义创建/更新会员时可配置字段
type MemberInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
	Status   string
	Notes    string
}

// NewMemberService 构造 MemberService
func NewMemberService(gdb *gorm.DB) *MemberService {
	return &MemberService{db: gdb}
}

// List 返回会员集合，支持状态过滤与关键词搜索
func (s *MemberService) List(filter MemberFilter) ([]db.Member, error) {
	var members []db.Member

	query := s.db.Model(&db.Member{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("full_name LIKE ? OR email LIKE ? OR member_number LIKE ?", like, like, like)
	}

	if err := query.Order("created_at DESC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

// Get 根据 ID 获取会员
func (s *MemberService) Get(id uint) (*db.Member, error) {
	var member db.Member
	if err := s.db.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &member, nil
}

// Resolve 实现考勤模块的会员目录接口。
func (s *MemberService) Resolve(memberID uint) (*db.Member, error) {
	return s.Get(memberID)
}

// GetByEmail 根据邮箱获取会员，供会员端登录使用
func (s *MemberService) GetByEmail(email string) (*db.Member, error) {
	var member db.Member
	if err := s.db.Where("email = ?", strings.TrimSpace(email)).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return &member, nil
}

// Create 新建会员，自动生成会员编号
func (s *MemberService) Create(input MemberInput) (*db.Member, error) {
	if err := validateMemberInput(input); err != nil {
		return nil, err
	}

	member := db.Member{
		FullName:     strings.TrimSpace(input.FullName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		MemberNumber: db.NewMemberNumber(),
		Status:       normalizeMemberStatus(input.Status),
		JoinedAt:     time.Now(),
		Notes:        strings.TrimSpace(input.Notes),
	}

	if strings.TrimSpace(input.Password) != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash member password: %w", err)
		}
		member.Password = string(hashed)
	}

	if err := s.db.Create(&member).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrMemberEmailTaken
		}
		return nil, fmt.Errorf("create member: %w", err)
	}
	return &member, nil
}

// Update 更新会员资料，会员编号与入会时间不随更新变动
func (s *MemberService) Update(id uint, input MemberInput) (*db.Member, error) {
	if err := validateMemberInput(input); err != nil {
		return nil, err
	}

	var existing db.Member
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}

	existing.FullName = strings.TrimSpace(input.FullName)
	existing.Email = strings.ToLower(strings.TrimSpace(input.Email))
	existing.Phone = strings.TrimSpace(input.Phone)
	existing.Status = normalizeMemberStatus(input.Status)
	existing.Notes = strings.TrimSpace(input.Notes)

	if strings.TrimSpace(input.Password) != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash member password: %w", err)
		}
		existing.Password = string(hashed)
	}

	if err := s.db.Save(&existing).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrMemberEmailTaken
		}
		return nil, fmt.Errorf("update member: %w", err)
	}
	return &existing, nil
}

// Delete 删除会员
func (s *MemberService) Delete(id uint) error {
	if err := s.db.Delete(&db.Member{}, id).Error; err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// Authenticate 校验会员端登录凭据。
func (s *MemberService) Authenticate(email, password string) (*db.Member, error) {
	member, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if member.Password == "" {
		return nil, ErrMemberNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(password)); err != nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func validateMemberInput(input MemberInput) error {
	if strings.TrimSpace(input.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrMemberInvalidInput)
	}

	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrMemberInvalidInput)
	}

	return nil
}

func normalizeMemberStatus(status string) string {
	status = strings.TrimSpace(strings.ToLower(status))
	if status != db.MemberStatusInactive {
		return db.MemberStatusActive
	}
	return db.MemberStatusInactive
}
