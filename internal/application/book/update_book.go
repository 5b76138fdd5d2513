package book

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/saga"
)

// UpdateBookRequest 部分更新请求，nil表示不修改
type UpdateBookRequest struct {
	Title         *string
	Description   *string
	Authors       []string
	ISBN13        *string
	Publisher     *string
	PublishedDate *time.Time
	Genres        []string
}

// UpdateBookUseCase 更新图书基本信息
type UpdateBookUseCase struct {
	bookService book.Service
	assembler   assembler
}

func NewUpdateBookUseCase(bookService book.Service, authorService author.Service) *UpdateBookUseCase {
	return &UpdateBookUseCase{
		bookService: bookService,
		assembler:   assembler{authorService: authorService},
	}
}

func (uc *UpdateBookUseCase) Execute(ctx context.Context, id string, req UpdateBookRequest) (*BookResponse, error) {
	b, err := uc.bookService.UpdateBook(ctx, id, book.UpdateParams{
		Title:         req.Title,
		Description:   req.Description,
		AuthorNames:   req.Authors,
		ISBN13:        req.ISBN13,
		Publisher:     req.Publisher,
		PublishedDate: req.PublishedDate,
		Genres:        req.Genres,
	})
	if err != nil {
		return nil, err
	}
	return uc.assembler.one(ctx, b)
}

// UpdateBookImageUseCase 替换封面
// 流程：确认图书存在 → Saga（存新封面 → 更新路径） → 删除旧封面
// 旧封面删除失败只记日志，不影响结果
type UpdateBookImageUseCase struct {
	bookService book.Service
	storage     CoverStorage
	assembler   assembler
}

func NewUpdateBookImageUseCase(bookService book.Service, authorService author.Service, storage CoverStorage) *UpdateBookImageUseCase {
	return &UpdateBookImageUseCase{
		bookService: bookService,
		storage:     storage,
		assembler:   assembler{authorService: authorService},
	}
}

func (uc *UpdateBookImageUseCase) Execute(ctx context.Context, id string, cover *CoverFile) (*BookResponse, error) {
	if cover == nil {
		return nil, book.ErrMissingField.WithMessage("缺少必填字段: image")
	}

	current, err := uc.bookService.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	oldImage := current.Image

	var (
		image   string
		updated *book.Book
	)

	s := saga.NewSaga("update-book-image", sagaTimeout).
		AddStep("保存封面",
			func(ctx context.Context) error {
				path, err := uc.storage.SaveCover(ctx, cover.Filename, cover.Size, cover.Content)
				image = path
				return err
			},
			func(ctx context.Context) error {
				return uc.storage.RemoveCover(ctx, image)
			}).
		AddStep("更新封面路径",
			func(ctx context.Context) error {
				b, err := uc.bookService.UpdateImage(ctx, id, image)
				updated = b
				return err
			}, nil)

	err = s.Execute(ctx)
	metrics.ObserveSaga("update-book-image", err)
	if err != nil {
		return nil, err
	}

	if oldImage != "" && oldImage != image {
		if err := uc.storage.RemoveCover(ctx, oldImage); err != nil {
			zap.L().Warn("删除旧封面失败", zap.String("book_id", id), zap.String("image", oldImage), zap.Error(err))
		}
	}

	return uc.assembler.one(ctx, updated)
}
