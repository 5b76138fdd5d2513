package author

import (
	"context"
	"errors"
)

// Service 作者领域服务
type Service interface {
	CreateAuthor(ctx context.Context, fullName, biography string) (*Author, error)

	GetAuthor(ctx context.Context, id string) (*Author, error)

	// GetAuthorsByIDs 按ids的顺序返回作者，缺失的作者返回ErrAuthorNotFound
	GetAuthorsByIDs(ctx context.Context, ids []string) ([]*Author, error)

	ListAuthors(ctx context.Context) ([]*Author, error)

	UpdateAuthor(ctx context.Context, id, fullName, biography string) (*Author, error)

	// DeleteAuthor 删除作者并返回被删除的记录
	// 业务规则：仍被图书引用时禁止删除
	DeleteAuthor(ctx context.Context, id string) (*Author, error)

	// ResolveAuthorIDs 按名字解析作者ID，不存在则创建
	ResolveAuthorIDs(ctx context.Context, names []string) ([]string, error)

	// FindAuthorIDsByName 名字包含keyword的作者ID（不区分大小写）
	FindAuthorIDsByName(ctx context.Context, keyword string) ([]string, error)
}

type service struct {
	repo  Repository
	books BookCounter
}

// NewService 创建作者领域服务
func NewService(repo Repository, books BookCounter) Service {
	return &service{repo: repo, books: books}
}

func (s *service) CreateAuthor(ctx context.Context, fullName, biography string) (*Author, error) {
	author, err := NewAuthor(fullName, biography)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *service) GetAuthor(ctx context.Context, id string) (*Author, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetAuthorsByIDs(ctx context.Context, ids []string) ([]*Author, error) {
	if len(ids) == 0 {
		return []*Author{}, nil
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Author, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	authors := make([]*Author, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, ErrAuthorNotFound
		}
		authors = append(authors, a)
	}
	return authors, nil
}

func (s *service) ListAuthors(ctx context.Context) ([]*Author, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateAuthor(ctx context.Context, id, fullName, biography string) (*Author, error) {
	author, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := author.Rename(fullName, biography); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *service) DeleteAuthor(ctx context.Context, id string) (*Author, error) {
	author, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.books.CountByAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAuthorHasBooks
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return author, nil
}

// ResolveAuthorIDs 作者解析
// 业务规则：
// 1. 按输入顺序逐个处理，名字按原样精确匹配（区分大小写，不去空格）
// 2. 不存在则以空biography创建
// 3. 输入重复则输出重复，不去重
// 4. 创建冲突时直接返回ErrFullNameDuplicate，本次调用中已创建的作者不回滚
func (s *service) ResolveAuthorIDs(ctx context.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))

	for _, name := range names {
		if isBlank(name) {
			return nil, ErrInvalidFullName
		}

		existing, err := s.repo.FindByFullName(ctx, name)
		if err == nil {
			ids = append(ids, existing.ID)
			continue
		}
		if !errors.Is(err, ErrAuthorNotFound) {
			return nil, err
		}

		created, err := s.CreateAuthor(ctx, name, "")
		if err != nil {
			return nil, err
		}
		ids = append(ids, created.ID)
	}

	return ids, nil
}

func (s *service) FindAuthorIDsByName(ctx context.Context, keyword string) ([]string, error) {
	authors, err := s.repo.SearchByName(ctx, keyword)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
