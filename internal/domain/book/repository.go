package book

import (
	"context"
	"time"
)

// Repository 图书仓储接口（依赖倒置原则）
// 设计说明：
// 1. 由domain层定义接口，infrastructure层实现
// 2. 借还通过条件更新完成（CAS），不依赖先读后写
type Repository interface {
	// Create 创建图书（含作者关联，单个事务）
	Create(ctx context.Context, book *Book) error

	FindByID(ctx context.Context, id string) (*Book, error)

	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// List 按书名升序、出版日期降序
	List(ctx context.Context) ([]*Book, error)

	// SearchByTitle 书名包含keyword（不区分大小写）
	SearchByTitle(ctx context.Context, keyword string) ([]*Book, error)

	// FindByAuthorIDs 引用了任一作者的图书
	FindByAuthorIDs(ctx context.Context, authorIDs []string) ([]*Book, error)

	// Update 更新基本信息与作者关联（不修改借阅字段）
	Update(ctx context.Context, book *Book) error

	UpdateImage(ctx context.Context, id, image string) error

	Delete(ctx context.Context, id string) error

	// CountByAuthor 引用了指定作者的图书数量
	CountByAuthor(ctx context.Context, authorID string) (int64, error)

	// MarkBorrowed 条件更新：仅当status=true时借出，否则返回ErrBookUnavailable
	MarkBorrowed(ctx context.Context, id, borrowerID string, borrowDate, returnDate time.Time) error

	// MarkReturned 条件更新：仅当borrower_id匹配时归还，否则返回ErrNotBorrower
	MarkReturned(ctx context.Context, id, borrowerID string) error

	// ReleaseByBorrower 归还某用户借阅的全部图书（删除用户时使用），返回影响行数
	ReleaseByBorrower(ctx context.Context, borrowerID string) (int64, error)
}
