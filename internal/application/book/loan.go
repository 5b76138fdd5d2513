package book

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
	"github.com/xiebiao/library/pkg/tracing"
)

// 借阅事件routing key
const (
	EventBookBorrowed = "book.borrowed"
	EventBookReturned = "book.returned"
)

const tracerName = "library/book"

// LoanEvent 借阅/归还事件
type LoanEvent struct {
	Type       string     `json:"type"`
	BookID     string     `json:"bookId"`
	UserID     string     `json:"userId"`
	BorrowDate *time.Time `json:"borrowDate,omitempty"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// LoanUseCase 借书/还书
// 设计说明：
// 1. 状态转换由领域服务完成（条件更新保证并发下只有一个借阅成功）
// 2. 成功后发布事件，发布失败只记日志
// 3. 每次调用记录指标并创建Span
type LoanUseCase struct {
	bookService book.Service
	publisher   mq.Publisher
	assembler   assembler
	now         func() time.Time
}

func NewLoanUseCase(bookService book.Service, authorService author.Service, publisher mq.Publisher) *LoanUseCase {
	return &LoanUseCase{
		bookService: bookService,
		publisher:   publisher,
		assembler:   assembler{authorService: authorService},
		now:         time.Now,
	}
}

// BorrowRequest 借书请求
type BorrowRequest struct {
	BookID     string
	BorrowDate time.Time
	ReturnDate time.Time
}

// Borrow 当前用户借书，图书不存在或已借出返回400
func (uc *LoanUseCase) Borrow(ctx context.Context, actor *user.User, req BorrowRequest) (resp *BookResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BorrowBook")
	span.SetAttributes(attribute.String("book.id", req.BookID), attribute.String("user.id", actor.ID))
	defer func() {
		metrics.ObserveLoan(metrics.LoanBorrow, err)
		tracing.EndSpan(span, err)
	}()

	b, err := uc.bookService.BorrowBook(ctx, req.BookID, actor.ID, req.BorrowDate, req.ReturnDate)
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, EventBookBorrowed, LoanEvent{
		Type:       EventBookBorrowed,
		BookID:     b.ID,
		UserID:     actor.ID,
		BorrowDate: b.BorrowDate,
		ReturnDate: b.ReturnDate,
		OccurredAt: uc.now(),
	})

	return uc.assembler.one(ctx, b)
}

// Return 当前用户还书，图书不存在或不是借阅人返回400
func (uc *LoanUseCase) Return(ctx context.Context, actor *user.User, bookID string) (resp *BookResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ReturnBook")
	span.SetAttributes(attribute.String("book.id", bookID), attribute.String("user.id", actor.ID))
	defer func() {
		metrics.ObserveLoan(metrics.LoanReturn, err)
		tracing.EndSpan(span, err)
	}()

	b, err := uc.bookService.ReturnBook(ctx, bookID, actor.ID)
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, EventBookReturned, LoanEvent{
		Type:       EventBookReturned,
		BookID:     b.ID,
		UserID:     actor.ID,
		OccurredAt: uc.now(),
	})

	return uc.assembler.one(ctx, b)
}

func (uc *LoanUseCase) publish(ctx context.Context, routingKey string, event LoanEvent) {
	if err := uc.publisher.Publish(ctx, routingKey, event); err != nil {
		zap.L().Warn("借阅事件发布失败",
			zap.String("routing_key", routingKey),
			zap.String("book_id", event.BookID),
			zap.Error(err),
		)
	}
}
