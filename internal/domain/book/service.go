package book

import (
	"context"
	"errors"
	"strings"
	"time"
)

// AuthorDirectory 图书服务依赖的作者能力（由作者领域服务实现）
type AuthorDirectory interface {
	ResolveAuthorIDs(ctx context.Context, names []string) ([]string, error)
	FindAuthorIDsByName(ctx context.Context, keyword string) ([]string, error)
}

// 搜索字段
const (
	SearchByISBN   = "isbn"
	SearchByTitle  = "title"
	SearchByAuthor = "author"
	SearchByAll    = "all"
)

// CreateParams 创建图书参数（作者为名字列表）
type CreateParams struct {
	Title         string
	Description   string
	AuthorNames   []string
	ISBN13        string
	Publisher     string
	PublishedDate time.Time
	Genres        []string
	Image         string
}

// UpdateParams 部分更新参数，nil表示不修改
type UpdateParams struct {
	Title         *string
	Description   *string
	AuthorNames   []string
	ISBN13        *string
	Publisher     *string
	PublishedDate *time.Time
	Genres        []string
}

// Service 图书领域服务
type Service interface {
	CreateBook(ctx context.Context, params CreateParams) (*Book, error)

	GetBook(ctx context.Context, id string) (*Book, error)

	ListBooks(ctx context.Context) ([]*Book, error)

	UpdateBook(ctx context.Context, id string, params UpdateParams) (*Book, error)

	UpdateImage(ctx context.Context, id, image string) (*Book, error)

	// DeleteBook 删除图书并返回被删除的记录
	// 业务规则：已借出的图书禁止删除
	DeleteBook(ctx context.Context, id string) (*Book, error)

	// SearchBooks field取值isbn|title|author|all
	SearchBooks(ctx context.Context, field, keyword string) ([]*Book, error)

	BorrowBook(ctx context.Context, id, userID string, borrowDate, returnDate time.Time) (*Book, error)

	ReturnBook(ctx context.Context, id, userID string) (*Book, error)
}

type service struct {
	repo    Repository
	authors AuthorDirectory
}

// NewService 创建图书领域服务
func NewService(repo Repository, authors AuthorDirectory) Service {
	return &service{repo: repo, authors: authors}
}

// CreateBook 创建图书
// 业务规则：
// 1. 必填字段校验，ISBN13校验位、类型枚举校验
// 2. 作者按名字解析（不存在则创建）
// 3. ISBN13唯一
func (s *service) CreateBook(ctx context.Context, p CreateParams) (*Book, error) {
	isbn := NormalizeISBN(p.ISBN13)

	if err := requireFields(map[string]string{
		"title":       p.Title,
		"description": p.Description,
		"publisher":   p.Publisher,
		"image":       p.Image,
	}); err != nil {
		return nil, err
	}
	if p.PublishedDate.IsZero() {
		return nil, ErrMissingField.WithMessage("缺少必填字段: publishedDate")
	}
	if !IsValidISBN13(isbn) {
		return nil, ErrInvalidISBN
	}
	if len(p.AuthorNames) == 0 {
		return nil, ErrMissingAuthors
	}
	if err := validateGenres(p.Genres); err != nil {
		return nil, err
	}

	if err := s.ensureISBNFree(ctx, isbn, ""); err != nil {
		return nil, err
	}

	authorIDs, err := s.authors.ResolveAuthorIDs(ctx, p.AuthorNames)
	if err != nil {
		return nil, err
	}

	genres := p.Genres
	if genres == nil {
		genres = []string{}
	}

	book := NewBook(p.Title, p.Description, isbn, p.Publisher, p.PublishedDate, authorIDs, genres, p.Image)
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *service) GetBook(ctx context.Context, id string) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListBooks(ctx context.Context) ([]*Book, error) {
	return s.repo.List(ctx)
}

// UpdateBook 部分更新，出现的字段都重新校验
func (s *service) UpdateBook(ctx context.Context, id string, p UpdateParams) (*Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for name, v := range map[string]*string{"title": p.Title, "description": p.Description, "publisher": p.Publisher} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, ErrMissingField.WithMessagef("字段不能为空: %s", name)
		}
	}
	if p.PublishedDate != nil && p.PublishedDate.IsZero() {
		return nil, ErrMissingField.WithMessage("字段不能为空: publishedDate")
	}
	if p.Genres != nil {
		if err := validateGenres(p.Genres); err != nil {
			return nil, err
		}
	}

	if p.ISBN13 != nil {
		isbn := NormalizeISBN(*p.ISBN13)
		if !IsValidISBN13(isbn) {
			return nil, ErrInvalidISBN
		}
		if isbn != book.ISBN13 {
			if err := s.ensureISBNFree(ctx, isbn, book.ID); err != nil {
				return nil, err
			}
		}
		book.ISBN13 = isbn
	}

	if p.AuthorNames != nil {
		if len(p.AuthorNames) == 0 {
			return nil, ErrMissingAuthors
		}
		ids, err := s.authors.ResolveAuthorIDs(ctx, p.AuthorNames)
		if err != nil {
			return nil, err
		}
		book.AuthorIDs = ids
	}

	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Description != nil {
		book.Description = *p.Description
	}
	if p.Publisher != nil {
		book.Publisher = *p.Publisher
	}
	if p.PublishedDate != nil {
		book.PublishedDate = *p.PublishedDate
	}
	if p.Genres != nil {
		book.Genres = p.Genres
	}
	book.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *service) UpdateImage(ctx context.Context, id, image string) (*Book, error) {
	if image == "" {
		return nil, ErrMissingField.WithMessage("缺少必填字段: image")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateImage(ctx, id, image); err != nil {
		return nil, err
	}
	book.Image = image
	book.UpdatedAt = time.Now()
	return book, nil
}

func (s *service) DeleteBook(ctx context.Context, id string) (*Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !book.IsAvailable() {
		return nil, ErrBookBorrowed
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return book, nil
}

// SearchBooks 图书搜索
// - isbn: 精确匹配
// - title: 书名子串（不区分大小写）
// - author: 先找名字包含keyword的作者，再找引用这些作者的图书
// - all: 依次拼接isbn、title、author三组结果，不去重
func (s *service) SearchBooks(ctx context.Context, field, keyword string) ([]*Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrInvalidSearch
	}

	switch field {
	case SearchByISBN:
		return s.searchByISBN(ctx, keyword)
	case SearchByTitle:
		return s.repo.SearchByTitle(ctx, keyword)
	case SearchByAuthor:
		return s.searchByAuthor(ctx, keyword)
	case SearchByAll:
		byISBN, err := s.searchByISBN(ctx, keyword)
		if err != nil {
			return nil, err
		}
		byTitle, err := s.repo.SearchByTitle(ctx, keyword)
		if err != nil {
			return nil, err
		}
		byAuthor, err := s.searchByAuthor(ctx, keyword)
		if err != nil {
			return nil, err
		}

		books := make([]*Book, 0, len(byISBN)+len(byTitle)+len(byAuthor))
		books = append(books, byISBN...)
		books = append(books, byTitle...)
		return append(books, byAuthor...), nil
	default:
		return nil, ErrInvalidSearch
	}
}

func (s *service) searchByISBN(ctx context.Context, keyword string) ([]*Book, error) {
	book, err := s.repo.FindByISBN(ctx, NormalizeISBN(keyword))
	if errors.Is(err, ErrBookNotFound) {
		return []*Book{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*Book{book}, nil
}

func (s *service) searchByAuthor(ctx context.Context, keyword string) ([]*Book, error) {
	ids, err := s.authors.FindAuthorIDsByName(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*Book{}, nil
	}
	return s.repo.FindByAuthorIDs(ctx, ids)
}

// BorrowBook 借书
// 图书不存在与已借出统一返回ErrBookUnavailable；前置条件不满足时不写库
func (s *service) BorrowBook(ctx context.Context, id, userID string, borrowDate, returnDate time.Time) (*Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrBookNotFound) {
		return nil, ErrBookUnavailable
	}
	if err != nil {
		return nil, err
	}

	if err := book.Borrow(userID, borrowDate, returnDate); err != nil {
		return nil, err
	}

	// 条件更新，并发借同一本书只有一个成功
	if err := s.repo.MarkBorrowed(ctx, id, userID, borrowDate, returnDate); err != nil {
		return nil, err
	}
	return book, nil
}

// ReturnBook 还书
// 图书不存在与借阅人不符统一返回ErrNotBorrower
func (s *service) ReturnBook(ctx context.Context, id, userID string) (*Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrBookNotFound) {
		return nil, ErrNotBorrower
	}
	if err != nil {
		return nil, err
	}

	if err := book.Return(userID); err != nil {
		return nil, err
	}

	if err := s.repo.MarkReturned(ctx, id, userID); err != nil {
		return nil, err
	}
	return book, nil
}

// ensureISBNFree ISBN未被其他图书占用
func (s *service) ensureISBNFree(ctx context.Context, isbn, selfID string) error {
	existing, err := s.repo.FindByISBN(ctx, isbn)
	if err == nil && existing.ID != selfID {
		return ErrISBNDuplicate
	}
	if err != nil && !errors.Is(err, ErrBookNotFound) {
		return err
	}
	return nil
}

func requireFields(fields map[string]string) error {
	for _, name := range []string{"title", "description", "publisher", "image"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			return ErrMissingField.WithMessagef("缺少必填字段: %s", name)
		}
	}
	return nil
}
