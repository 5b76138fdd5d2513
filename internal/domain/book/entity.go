package book

import (
	"time"

	"github.com/google/uuid"
)

// Book 图书实体（聚合根）
// DDD设计说明：
// 1. AuthorIDs有序且非空，顺序即作者署名顺序
// 2. Status=true表示可借，false表示已借出
// 3. 借出状态下BorrowerID、BorrowDate、ReturnDate必须同时存在；可借状态下三者均为空
// 4. ISBN13在存储层唯一
type Book struct {
	ID            string
	Title         string
	AuthorIDs     []string
	Description   string
	ISBN13        string
	Publisher     string
	PublishedDate time.Time
	Genres        []string
	Status        bool
	BorrowerID    string
	BorrowDate    *time.Time
	ReturnDate    *time.Time
	Image         string // 封面存储路径（相对/uploads）
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBook 创建新图书（工厂方法），新书默认可借
func NewBook(title, description, isbn13, publisher string, publishedDate time.Time, authorIDs, genres []string, image string) *Book {
	now := time.Now()
	return &Book{
		ID:            uuid.NewString(),
		Title:         title,
		AuthorIDs:     authorIDs,
		Description:   description,
		ISBN13:        isbn13,
		Publisher:     publisher,
		PublishedDate: publishedDate,
		Genres:        genres,
		Status:        true,
		Image:         image,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsAvailable 是否可借
func (b *Book) IsAvailable() bool {
	return b.Status
}

// IsBorrowedBy 是否由指定用户借出
func (b *Book) IsBorrowedBy(userID string) bool {
	return !b.Status && userID != "" && b.BorrowerID == userID
}

// Borrow 借出（领域行为）
// 业务规则：
// 1. 只有可借状态的图书可以借出
// 2. 归还日期不能早于借出日期
// 前置条件不满足时不修改任何字段
func (b *Book) Borrow(userID string, borrowDate, returnDate time.Time) error {
	if !b.IsAvailable() {
		return ErrBookUnavailable
	}
	if userID == "" || borrowDate.IsZero() || returnDate.IsZero() {
		return ErrInvalidBorrowDates
	}
	if returnDate.Before(borrowDate) {
		return ErrInvalidBorrowDates
	}

	b.Status = false
	b.BorrowerID = userID
	b.BorrowDate = &borrowDate
	b.ReturnDate = &returnDate
	b.UpdatedAt = time.Now()
	return nil
}

// Return 归还（领域行为）
// 业务规则：只有当前借阅人可以归还
func (b *Book) Return(userID string) error {
	if !b.IsBorrowedBy(userID) {
		return ErrNotBorrower
	}

	b.Status = true
	b.BorrowerID = ""
	b.BorrowDate = nil
	b.ReturnDate = nil
	b.UpdatedAt = time.Now()
	return nil
}
