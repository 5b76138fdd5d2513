package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

// UpdateParams 部分更新参数，nil表示不修改
type UpdateParams struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *Role
}

// Identity 已由外部身份提供方校验过的身份信息
type Identity struct {
	Email     string
	FirstName string
	LastName  string
}

// Service 用户领域服务
// 设计说明：
// 1. Service包含不属于单个实体的业务逻辑（唯一性、访问控制）
// 2. Service依赖Repository接口，不依赖具体实现（依赖倒置）
// 3. Service不处理HTTP请求，只处理业务逻辑
type Service interface {
	CreateUser(ctx context.Context, firstName, lastName, email string, role Role) (*User, error)

	// GetUser actor必须是管理员或本人
	GetUser(ctx context.Context, actor *User, id string) (*User, error)

	// FindByID 不做访问控制（鉴权中间件回查用户使用）
	FindByID(ctx context.Context, id string) (*User, error)

	ListUsers(ctx context.Context) ([]*User, error)

	// UpdateUser actor必须是管理员或本人，普通用户不能修改角色
	UpdateUser(ctx context.Context, actor *User, id string, params UpdateParams) (*User, error)

	// FindOrCreate 登录时按邮箱查找用户，不存在则以role创建
	FindOrCreate(ctx context.Context, identity Identity, role Role) (*User, error)
}

type service struct {
	repo Repository
}

// NewService 创建用户服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateUser 创建用户
// 业务规则：
// 1. 姓名不能为空，邮箱格式校验
// 2. 角色必须是USER或ADMIN
// 3. 邮箱唯一性由数据库UNIQUE索引保证
func (s *service) CreateUser(ctx context.Context, firstName, lastName, email string, role Role) (*User, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, ErrInvalidName
	}
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}

	user := NewUser(firstName, lastName, email, role)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err // Repository已转换为业务错误
	}
	return user, nil
}

func (s *service) GetUser(ctx context.Context, actor *User, id string) (*User, error) {
	if !actor.CanAccess(id) {
		return nil, ErrAccessDenied
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateUser(ctx context.Context, actor *User, id string, p UpdateParams) (*User, error) {
	if !actor.CanAccess(id) {
		return nil, ErrAccessDenied
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.FirstName != nil {
		if strings.TrimSpace(*p.FirstName) == "" {
			return nil, ErrInvalidName
		}
		user.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		if strings.TrimSpace(*p.LastName) == "" {
			return nil, ErrInvalidName
		}
		user.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Email != nil {
		if !isValidEmail(*p.Email) {
			return nil, ErrInvalidEmail
		}
		user.Email = normalizeEmail(*p.Email)
	}
	if p.Role != nil && *p.Role != user.Role {
		if !actor.IsAdmin() {
			return nil, ErrRoleChangeDenied
		}
		if _, err := ParseRole(string(*p.Role)); err != nil {
			return nil, err
		}
		user.Role = *p.Role
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindOrCreate 登录时查找或创建用户，用户不存在不会导致登录失败
func (s *service) FindOrCreate(ctx context.Context, identity Identity, role Role) (*User, error) {
	existing, err := s.repo.FindByEmail(ctx, normalizeEmail(identity.Email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if !isValidEmail(identity.Email) {
		return nil, ErrInvalidEmail
	}

	user := NewUser(identity.FirstName, identity.LastName, identity.Email, role)
	if err := s.repo.Create(ctx, user); err != nil {
		// 并发首次登录：另一请求已创建同邮箱用户
		if errors.Is(err, ErrEmailDuplicate) {
			return s.repo.FindByEmail(ctx, user.Email)
		}
		return nil, err
	}
	return user, nil
}

// isValidEmail 邮箱格式校验（只接受纯地址，不接受"Name <addr>"形式）
func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
