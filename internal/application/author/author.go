package author

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/author"
)

// AuthorUseCase 作者管理用例
// 作者CRUD没有跨聚合编排，用例只做领域服务调用与响应转换
type AuthorUseCase struct {
	authorService author.Service
}

// NewAuthorUseCase 创建作者用例
func NewAuthorUseCase(authorService author.Service) *AuthorUseCase {
	return &AuthorUseCase{authorService: authorService}
}

// AuthorRequest 创建/更新作者请求
type AuthorRequest struct {
	FullName  string
	Biography string
}

// AuthorResponse 作者响应DTO（图书响应中也复用）
type AuthorResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Biography string    `json:"biography"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToAuthorResponse 领域实体转响应DTO
func ToAuthorResponse(a *author.Author) *AuthorResponse {
	return &AuthorResponse{
		ID:        a.ID,
		FullName:  a.FullName,
		Biography: a.Biography,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (uc *AuthorUseCase) Create(ctx context.Context, req AuthorRequest) (*AuthorResponse, error) {
	a, err := uc.authorService.CreateAuthor(ctx, req.FullName, req.Biography)
	if err != nil {
		return nil, err
	}
	return ToAuthorResponse(a), nil
}

func (uc *AuthorUseCase) Get(ctx context.Context, id string) (*AuthorResponse, error) {
	a, err := uc.authorService.GetAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAuthorResponse(a), nil
}

// List 按fullName升序
func (uc *AuthorUseCase) List(ctx context.Context) ([]*AuthorResponse, error) {
	authors, err := uc.authorService.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]*AuthorResponse, 0, len(authors))
	for _, a := range authors {
		list = append(list, ToAuthorResponse(a))
	}
	return list, nil
}

func (uc *AuthorUseCase) Update(ctx context.Context, id string, req AuthorRequest) (*AuthorResponse, error) {
	a, err := uc.authorService.UpdateAuthor(ctx, id, req.FullName, req.Biography)
	if err != nil {
		return nil, err
	}
	return ToAuthorResponse(a), nil
}

// Delete 删除作者，返回被删除的记录（仍被图书引用时返回403）
func (uc *AuthorUseCase) Delete(ctx context.Context, id string) (*AuthorResponse, error) {
	a, err := uc.authorService.DeleteAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToAuthorResponse(a), nil
}
