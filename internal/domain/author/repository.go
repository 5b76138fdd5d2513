package author

import (
	"context"
)

// Repository 作者仓储接口
// 不存在时返回ErrAuthorNotFound，名字冲突时返回ErrFullNameDuplicate
type Repository interface {
	Create(ctx context.Context, author *Author) error

	FindByID(ctx context.Context, id string) (*Author, error)

	// FindByIDs 批量查询，返回顺序不保证，缺失的ID直接忽略
	FindByIDs(ctx context.Context, ids []string) ([]*Author, error)

	// FindByFullName 按名字精确匹配（区分大小写）
	FindByFullName(ctx context.Context, fullName string) (*Author, error)

	// SearchByName 名字包含keyword的作者（不区分大小写）
	SearchByName(ctx context.Context, keyword string) ([]*Author, error)

	// List 按FullName升序
	List(ctx context.Context) ([]*Author, error)

	Update(ctx context.Context, author *Author) error

	Delete(ctx context.Context, id string) error
}

// BookCounter 统计引用某作者的图书数量（由图书仓储实现）
type BookCounter interface {
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}
