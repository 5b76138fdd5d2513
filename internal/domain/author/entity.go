package author

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Author 作者实体（聚合根）
// 设计说明：
// 1. FullName在存储层唯一，作者解析（按名字upsert）依赖这一点
// 2. Biography可为空，隐式创建的作者biography为空串
type Author struct {
	ID        string
	FullName  string
	Biography string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAuthor 创建新作者（工厂方法）
func NewAuthor(fullName, biography string) (*Author, error) {
	if isBlank(fullName) {
		return nil, ErrInvalidFullName
	}

	now := time.Now()
	return &Author{
		ID:        uuid.NewString(),
		FullName:  fullName,
		Biography: biography,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// isBlank 名字按原样保存，只拒绝空白
func isBlank(fullName string) bool {
	return strings.TrimSpace(fullName) == ""
}

// Rename 更新作者信息（领域行为）
func (a *Author) Rename(fullName, biography string) error {
	if isBlank(fullName) {
		return ErrInvalidFullName
	}
	a.FullName = fullName
	a.Biography = biography
	a.UpdatedAt = time.Now()
	return nil
}
