package book

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/saga"
)

const sagaTimeout = 30 * time.Second

// CreateBookUseCase 创建图书用例
// 设计说明：
// 1. 封面文件与数据库不在同一事务中，使用Saga编排：先存封面，再写图书
// 2. 写图书失败（校验失败、ISBN重复等）时补偿删除已保存的封面
// 3. 作者按名字解析，解析出的新作者不随补偿回滚
type CreateBookUseCase struct {
	bookService book.Service
	storage     CoverStorage
	assembler   assembler
}

// NewCreateBookUseCase 创建用例
func NewCreateBookUseCase(bookService book.Service, authorService author.Service, storage CoverStorage) *CreateBookUseCase {
	return &CreateBookUseCase{
		bookService: bookService,
		storage:     storage,
		assembler:   assembler{authorService: authorService},
	}
}

// CreateBookRequest 创建图书请求
type CreateBookRequest struct {
	Title         string
	Description   string
	Authors       []string // 作者姓名，按署名顺序
	ISBN13        string
	Publisher     string
	PublishedDate time.Time
	Genres        []string
	Cover         *CoverFile
}

// Execute 执行创建
func (uc *CreateBookUseCase) Execute(ctx context.Context, req CreateBookRequest) (*BookResponse, error) {
	if req.Cover == nil {
		return nil, book.ErrMissingField.WithMessage("缺少必填字段: image")
	}

	var (
		image   string
		created *book.Book
	)

	s := saga.NewSaga("create-book", sagaTimeout).
		AddStep("保存封面",
			func(ctx context.Context) error {
				path, err := uc.storage.SaveCover(ctx, req.Cover.Filename, req.Cover.Size, req.Cover.Content)
				image = path
				return err
			},
			func(ctx context.Context) error {
				return uc.storage.RemoveCover(ctx, image)
			}).
		AddStep("写入图书",
			func(ctx context.Context) error {
				b, err := uc.bookService.CreateBook(ctx, book.CreateParams{
					Title:         req.Title,
					Description:   req.Description,
					AuthorNames:   req.Authors,
					ISBN13:        req.ISBN13,
					Publisher:     req.Publisher,
					PublishedDate: req.PublishedDate,
					Genres:        req.Genres,
					Image:         image,
				})
				created = b
				return err
			}, nil)

	err := s.Execute(ctx)
	metrics.ObserveSaga("create-book", err)
	if err != nil {
		return nil, err
	}

	return uc.assembler.one(ctx, created)
}
