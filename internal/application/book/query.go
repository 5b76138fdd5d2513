package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
)

// BookQueryUseCase 图书查询（详情、列表、搜索）
type BookQueryUseCase struct {
	bookService book.Service
	assembler   assembler
}

func NewBookQueryUseCase(bookService book.Service, authorService author.Service) *BookQueryUseCase {
	return &BookQueryUseCase{
		bookService: bookService,
		assembler:   assembler{authorService: authorService},
	}
}

func (uc *BookQueryUseCase) Get(ctx context.Context, id string) (*BookResponse, error) {
	b, err := uc.bookService.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.assembler.one(ctx, b)
}

// List 按title升序、publishedDate降序
func (uc *BookQueryUseCase) List(ctx context.Context) ([]*BookResponse, error) {
	books, err := uc.bookService.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	return uc.assembler.many(ctx, books)
}

// Search field取值isbn/title/author/all，all的结果不去重
func (uc *BookQueryUseCase) Search(ctx context.Context, field, keyword string) ([]*BookResponse, error) {
	books, err := uc.bookService.SearchBooks(ctx, field, keyword)
	if err != nil {
		return nil, err
	}
	return uc.assembler.many(ctx, books)
}

// DeleteBookUseCase 删除图书（已借出时禁止），成功后删除封面文件
type DeleteBookUseCase struct {
	bookService book.Service
	storage     CoverStorage
	assembler   assembler
}

func NewDeleteBookUseCase(bookService book.Service, authorService author.Service, storage CoverStorage) *DeleteBookUseCase {
	return &DeleteBookUseCase{
		bookService: bookService,
		storage:     storage,
		assembler:   assembler{authorService: authorService},
	}
}

// Execute 返回被删除的图书
func (uc *DeleteBookUseCase) Execute(ctx context.Context, id string) (*BookResponse, error) {
	// 先组装响应：删除后作者可能随即被删，届时无法再展开
	current, err := uc.bookService.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := uc.assembler.one(ctx, current)
	if err != nil {
		return nil, err
	}

	deleted, err := uc.bookService.DeleteBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if deleted.Image != "" {
		if err := uc.storage.RemoveCover(ctx, deleted.Image); err != nil {
			zap.L().Warn("删除封面失败", zap.String("book_id", id), zap.String("image", deleted.Image), zap.Error(err))
		}
	}
	return resp, nil
}
