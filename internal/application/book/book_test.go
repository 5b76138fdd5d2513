package book

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/author"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
)

// memStorage 内存版封面存储
type memStorage struct {
	files   map[string]string
	removed []string
	saveErr error
	seq     int
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string]string{}}
}

func (s *memStorage) SaveCover(_ context.Context, filename string, _ int64, content io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	s.seq++
	path := fmt.Sprintf("/uploads/books/%d-%s", s.seq, filename)
	s.files[path] = string(data)
	return path, nil
}

func (s *memStorage) RemoveCover(_ context.Context, path string) error {
	delete(s.files, path)
	s.removed = append(s.removed, path)
	return nil
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	keys   []string
	events []LoanEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, msg interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.events = append(p.events, msg.(LoanEvent))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	books     book.Service
	authors   author.Service
	users     user.Repository
	storage   *memStorage
	publisher *recordingPublisher

	create *CreateBookUseCase
	update *UpdateBookUseCase
	image  *UpdateBookImageUseCase
	query  *BookQueryUseCase
	delete *DeleteBookUseCase
	loan   *LoanUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mysqltest.NewDB(t)

	bookRepo := mysql.NewBookRepository(db)
	authorSvc := author.NewService(mysql.NewAuthorRepository(db), bookRepo)
	bookSvc := book.NewService(bookRepo, authorSvc)

	f := &fixture{
		books:     bookSvc,
		authors:   authorSvc,
		users:     mysql.NewUserRepository(db),
		storage:   newMemStorage(),
		publisher: &recordingPublisher{},
	}
	f.create = NewCreateBookUseCase(bookSvc, authorSvc, f.storage)
	f.update = NewUpdateBookUseCase(bookSvc, authorSvc)
	f.image = NewUpdateBookImageUseCase(bookSvc, authorSvc, f.storage)
	f.query = NewBookQueryUseCase(bookSvc, authorSvc)
	f.delete = NewDeleteBookUseCase(bookSvc, authorSvc, f.storage)
	f.loan = NewLoanUseCase(bookSvc, authorSvc, f.publisher)
	return f
}

func (f *fixture) newUser(t *testing.T, email string) *user.User {
	t.Helper()
	u := user.NewUser("Test", "User", email, user.RoleUser)
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func cover(name string) *CoverFile {
	return &CoverFile{Filename: name, Size: 4, Content: strings.NewReader("\x89PNG")}
}

func tessRequest() CreateBookRequest {
	return CreateBookRequest{
		Title:         "Tess of the d'Urbervilles",
		Description:   "A novel",
		Authors:       []string{"Thomas Hardy"},
		ISBN13:        "978-0-14-143951-8",
		Publisher:     "Penguin",
		PublishedDate: time.Date(1891, 1, 1, 0, 0, 0, 0, time.UTC),
		Genres:        []string{"Classic"},
		Cover:         cover("tess.png"),
	}
}

func TestCreateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("作者按名字解析并在响应中展开", func(t *testing.T) {
		f := newFixture(t)
		hardy, err := f.authors.CreateAuthor(ctx, "Thomas Hardy", "English novelist")
		require.NoError(t, err)

		resp, err := f.create.Execute(ctx, tessRequest())
		require.NoError(t, err)

		require.Len(t, resp.Authors, 1)
		assert.Equal(t, hardy.ID, resp.Authors[0].ID)
		assert.Equal(t, "Thomas Hardy", resp.Authors[0].FullName)
		assert.Equal(t, "9780141439518", resp.ISBN13)
		assert.True(t, resp.Status)
		assert.Nil(t, resp.BorrowerID)
		assert.Contains(t, f.storage.files, resp.Image)

		got, err := f.query.Get(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "Thomas Hardy", got.Authors[0].FullName)
	})

	t.Run("写库失败时补偿删除封面", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.create.Execute(ctx, tessRequest())
		require.NoError(t, err)

		dup := tessRequest()
		dup.Title = "Another"
		dup.Cover = cover("another.png")
		_, err = f.create.Execute(ctx, dup)
		assert.ErrorIs(t, err, book.ErrISBNDuplicate)

		assert.Len(t, f.storage.files, 1)
		require.Len(t, f.storage.removed, 1)
		assert.Contains(t, f.storage.removed[0], "another.png")
	})

	t.Run("校验失败同样补偿", func(t *testing.T) {
		f := newFixture(t)
		req := tessRequest()
		req.Genres = []string{"Cooking Show"}
		_, err := f.create.Execute(ctx, req)
		assert.ErrorIs(t, err, book.ErrInvalidGenre)
		assert.Empty(t, f.storage.files)
	})

	t.Run("缺少封面", func(t *testing.T) {
		f := newFixture(t)
		req := tessRequest()
		req.Cover = nil
		_, err := f.create.Execute(ctx, req)
		assert.ErrorIs(t, err, book.ErrMissingField)
	})

	t.Run("存储失败不写库", func(t *testing.T) {
		f := newFixture(t)
		f.storage.saveErr = errors.New("disk full")
		_, err := f.create.Execute(ctx, tessRequest())
		assert.Error(t, err)

		list, err := f.query.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.create.Execute(ctx, tessRequest())
	require.NoError(t, err)

	title := "Tess"
	resp, err := f.update.Execute(ctx, created.ID, UpdateBookRequest{
		Title:   &title,
		Authors: []string{"Thomas Hardy", "Anonymous"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Tess", resp.Title)
	require.Len(t, resp.Authors, 2)
	assert.Equal(t, "Anonymous", resp.Authors[1].FullName)
	assert.Equal(t, created.ISBN13, resp.ISBN13)

	_, err = f.update.Execute(ctx, "00000000-0000-0000-0000-000000000000", UpdateBookRequest{Title: &title})
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestUpdateBookImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.create.Execute(ctx, tessRequest())
	require.NoError(t, err)

	resp, err := f.image.Execute(ctx, created.ID, cover("new.png"))
	require.NoError(t, err)
	assert.NotEqual(t, created.Image, resp.Image)
	assert.Contains(t, f.storage.files, resp.Image)
	assert.NotContains(t, f.storage.files, created.Image, "旧封面已删除")

	t.Run("图书不存在时不保存文件", func(t *testing.T) {
		before := len(f.storage.files)
		_, err := f.image.Execute(ctx, "00000000-0000-0000-0000-000000000000", cover("x.png"))
		assert.ErrorIs(t, err, book.ErrBookNotFound)
		assert.Len(t, f.storage.files, before)
	})
}

func TestSearchBooks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.create.Execute(ctx, tessRequest())
	require.NoError(t, err)

	byTitle, err := f.query.Search(ctx, book.SearchByTitle, "urberv")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, created.ID, byTitle[0].ID)

	byISBN, err := f.query.Search(ctx, book.SearchByISBN, "9780141439518")
	require.NoError(t, err)
	assert.Len(t, byISBN, 1)

	all, err := f.query.Search(ctx, book.SearchByAll, created.Title)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, created.ID, all[0].ID)

	_, err = f.query.Search(ctx, "publisher", "Penguin")
	assert.ErrorIs(t, err, book.ErrInvalidSearch)
}

func TestLoan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.create.Execute(ctx, tessRequest())
	require.NoError(t, err)

	alice := f.newUser(t, "alice@example.com")
	bob := f.newUser(t, "bob@example.com")
	borrowAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	req := BorrowRequest{BookID: created.ID, BorrowDate: borrowAt, ReturnDate: borrowAt.AddDate(0, 0, 14)}

	borrowed, err := f.loan.Borrow(ctx, alice, req)
	require.NoError(t, err)
	assert.False(t, borrowed.Status)
	require.NotNil(t, borrowed.BorrowerID)
	assert.Equal(t, alice.ID, *borrowed.BorrowerID)

	held, err := f.users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, held.BorrowedBooks)

	t.Run("已借出不能再借", func(t *testing.T) {
		_, err := f.loan.Borrow(ctx, bob, req)
		assert.ErrorIs(t, err, book.ErrBookUnavailable)

		got, err := f.query.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, *got.BorrowerID)
	})

	t.Run("非借阅人不能还", func(t *testing.T) {
		_, err := f.loan.Return(ctx, bob, created.ID)
		assert.ErrorIs(t, err, book.ErrNotBorrower)
	})

	t.Run("已借出不能删除", func(t *testing.T) {
		_, err := f.delete.Execute(ctx, created.ID)
		assert.ErrorIs(t, err, book.ErrBookBorrowed)
	})

	returned, err := f.loan.Return(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.True(t, returned.Status)
	assert.Nil(t, returned.BorrowerID)
	assert.Nil(t, returned.BorrowDate)
	assert.Nil(t, returned.ReturnDate)

	held, err = f.users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, held.BorrowedBooks)

	assert.Equal(t, []string{EventBookBorrowed, EventBookReturned}, f.publisher.keys)
	assert.Equal(t, alice.ID, f.publisher.events[0].UserID)
	require.NotNil(t, f.publisher.events[0].ReturnDate)
	assert.True(t, f.publisher.events[0].ReturnDate.Equal(req.ReturnDate))

	deleted, err := f.delete.Execute(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.NotContains(t, f.storage.files, created.Image)

	_, err = f.query.Get(ctx, created.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestLoan_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	created, err := f.create.Execute(ctx, tessRequest())
	require.NoError(t, err)
	u := f.newUser(t, "carol@example.com")

	now := time.Now().UTC()
	_, err = f.loan.Borrow(ctx, u, BorrowRequest{BookID: created.ID, BorrowDate: now, ReturnDate: now.Add(time.Hour)})
	assert.NoError(t, err)
}

func TestBorrow_InvalidDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.create.Execute(ctx, tessRequest())
	require.NoError(t, err)
	u := f.newUser(t, "dave@example.com")

	now := time.Now().UTC()
	_, err = f.loan.Borrow(ctx, u, BorrowRequest{BookID: created.ID, BorrowDate: now, ReturnDate: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, book.ErrInvalidBorrowDates)

	got, err := f.query.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Status)
	assert.Empty(t, f.publisher.keys)
}
