package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role 用户角色（封闭枚举）
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole 解析角色，非法值返回ErrInvalidRole
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

// User 用户实体（聚合根）
// DDD设计说明：
// 1. 登录由Google身份令牌完成，本地不保存密码
// 2. BorrowedBooks是投影：由仓储按books.borrower_id回填，不单独写入
type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	Role          Role
	BorrowedBooks []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser 创建新用户（工厂方法）
func NewUser(firstName, lastName, email string, role Role) *User {
	now := time.Now()
	return &User{
		ID:            uuid.NewString(),
		FirstName:     strings.TrimSpace(firstName),
		LastName:      strings.TrimSpace(lastName),
		Email:         normalizeEmail(email),
		Role:          role,
		BorrowedBooks: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasRole 当前角色是否在允许列表中
func (u *User) HasRole(allowed ...Role) bool {
	for _, r := range allowed {
		if u.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccess 是否可以查看或修改目标用户（管理员或本人）
func (u *User) CanAccess(targetID string) bool {
	return u.IsAdmin() || u.ID == targetID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
