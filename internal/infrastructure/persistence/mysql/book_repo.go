package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// bookRepository 图书仓储实现
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换(作者关联按position还原顺序)
// 3. 处理数据库特定的错误(如ISBN重复),转换为业务错误
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
// 图书行与book_authors在同一事务中写入
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model, err := toBookModel(b)
	if err != nil {
		return err
	}

	err = getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Authors").Create(model).Error; err != nil {
			return err
		}
		return insertBookAuthors(tx, b.ID, b.AuthorIDs)
	})
	if err != nil {
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id string) (*book.Book, error) {
	var model BookModel
	if err := r.query(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model)
}

// FindByISBN 根据ISBN查找图书
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	if err := r.query(ctx).Where("isbn13 = ?", isbn).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model)
}

// List 书名升序,同名按出版日期降序
func (r *bookRepository) List(ctx context.Context) ([]*book.Book, error) {
	return r.find(ctx, r.query(ctx))
}

// SearchByTitle 书名子串匹配(不区分大小写)
func (r *bookRepository) SearchByTitle(ctx context.Context, keyword string) ([]*book.Book, error) {
	return r.find(ctx, r.query(ctx).Where("LOWER(title) LIKE ? ESCAPE '!'", containsPattern(keyword)))
}

// FindByAuthorIDs 引用了任一作者的图书
func (r *bookRepository) FindByAuthorIDs(ctx context.Context, authorIDs []string) ([]*book.Book, error) {
	sub := getDB(ctx, r.db).Model(&BookAuthorModel{}).Select("book_id").Where("author_id IN ?", authorIDs)
	return r.find(ctx, r.query(ctx).Where("id IN (?)", sub))
}

// Update 更新基本信息并重写作者关联
// 教学要点:借阅字段不在Select列表中,避免覆盖并发的借还结果
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model, err := toBookModel(b)
	if err != nil {
		return err
	}

	err = getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&BookModel{ID: b.ID}).
			Select("title", "description", "isbn13", "publisher", "published_date", "genres", "updated_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return book.ErrBookNotFound
		}

		if err := tx.Where("book_id = ?", b.ID).Delete(&BookAuthorModel{}).Error; err != nil {
			return err
		}
		return insertBookAuthors(tx, b.ID, b.AuthorIDs)
	})
	if err != nil {
		if errors.Is(err, book.ErrBookNotFound) {
			return book.ErrBookNotFound
		}
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "更新图书失败")
	}
	return nil
}

func (r *bookRepository) UpdateImage(ctx context.Context, id, image string) error {
	result := getDB(ctx, r.db).Model(&BookModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"image":      image,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新封面失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// Delete 删除图书(硬删除,同时删除作者关联)
// 只删除可借状态的图书,防止检查后被并发借出
func (r *bookRepository) Delete(ctx context.Context, id string) error {
	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND status = ?", id, true).Delete(&BookModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&BookModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return book.ErrBookBorrowed
			}
			return book.ErrBookNotFound
		}
		return tx.Where("book_id = ?", id).Delete(&BookAuthorModel{}).Error
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Wrap(err, "删除图书失败")
	}
	return nil
}

func (r *bookRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&BookAuthorModel{}).
		Where("author_id = ?", authorID).
		Distinct("book_id").
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计作者图书失败")
	}
	return count, nil
}

// MarkBorrowed 借出(条件更新)
// UPDATE books SET status=false, borrower_id=?, ... WHERE id=? AND status=true
func (r *bookRepository) MarkBorrowed(ctx context.Context, id, borrowerID string, borrowDate, returnDate time.Time) error {
	result := getDB(ctx, r.db).Model(&BookModel{}).
		Where("id = ? AND status = ?", id, true).
		Updates(map[string]interface{}{
			"status":      false,
			"borrower_id": borrowerID,
			"borrow_date": borrowDate,
			"return_date": returnDate,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "借出图书失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookUnavailable
	}
	return nil
}

// MarkReturned 归还(条件更新)
// UPDATE books SET status=true, borrower_id=NULL, ... WHERE id=? AND borrower_id=?
func (r *bookRepository) MarkReturned(ctx context.Context, id, borrowerID string) error {
	result := getDB(ctx, r.db).Model(&BookModel{}).
		Where("id = ? AND borrower_id = ?", id, borrowerID).
		Updates(releaseColumns())
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "归还图书失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrNotBorrower
	}
	return nil
}

func (r *bookRepository) ReleaseByBorrower(ctx context.Context, borrowerID string) (int64, error) {
	result := getDB(ctx, r.db).Model(&BookModel{}).
		Where("borrower_id = ?", borrowerID).
		Updates(releaseColumns())
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, "释放借阅失败")
	}
	return result.RowsAffected, nil
}

// query 预加载作者关联(按position排序)
func (r *bookRepository) query(ctx context.Context) *gorm.DB {
	return getDB(ctx, r.db).Preload("Authors", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *bookRepository) find(_ context.Context, query *gorm.DB) ([]*book.Book, error) {
	var models []BookModel
	if err := query.Order("title ASC").Order("published_date DESC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		b, err := toBookEntity(&models[i])
		if err != nil {
			return nil, err
		}
		books[i] = b
	}
	return books, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func releaseColumns() map[string]interface{} {
	return map[string]interface{}{
		"status":      true,
		"borrower_id": nil,
		"borrow_date": nil,
		"return_date": nil,
		"updated_at":  time.Now().UTC(),
	}
}

func insertBookAuthors(tx *gorm.DB, bookID string, authorIDs []string) error {
	if len(authorIDs) == 0 {
		return nil
	}
	rows := make([]BookAuthorModel, len(authorIDs))
	for i, id := range authorIDs {
		rows[i] = BookAuthorModel{BookID: bookID, Position: i, AuthorID: id}
	}
	return tx.Create(&rows).Error
}

// toBookModel 领域实体 → GORM模型
func toBookModel(b *book.Book) (*BookModel, error) {
	genres, err := json.Marshal(b.Genres)
	if err != nil {
		return nil, apperrors.Wrap(err, "序列化图书类型失败")
	}

	model := &BookModel{
		ID:            b.ID,
		Title:         b.Title,
		Description:   b.Description,
		ISBN13:        b.ISBN13,
		Publisher:     b.Publisher,
		PublishedDate: b.PublishedDate,
		Genres:        datatypes.JSON(genres),
		Status:        b.Status,
		BorrowDate:    b.BorrowDate,
		ReturnDate:    b.ReturnDate,
		Image:         b.Image,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.BorrowerID != "" {
		borrower := b.BorrowerID
		model.BorrowerID = &borrower
	}
	return model, nil
}

// toBookEntity GORM模型 → 领域实体
// genres列无法解析时返回错误，不静默成空列表
func toBookEntity(m *BookModel) (*book.Book, error) {
	genres := []string{}
	if len(m.Genres) > 0 {
		if err := json.Unmarshal(m.Genres, &genres); err != nil {
			return nil, apperrors.Wrapf(err, "解析图书类型失败: book_id=%s", m.ID)
		}
	}

	authorIDs := make([]string, len(m.Authors))
	for i, a := range m.Authors {
		authorIDs[i] = a.AuthorID
	}

	b := &book.Book{
		ID:            m.ID,
		Title:         m.Title,
		AuthorIDs:     authorIDs,
		Description:   m.Description,
		ISBN13:        m.ISBN13,
		Publisher:     m.Publisher,
		PublishedDate: m.PublishedDate,
		Genres:        genres,
		Status:        m.Status,
		BorrowDate:    m.BorrowDate,
		ReturnDate:    m.ReturnDate,
		Image:         m.Image,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.BorrowerID != nil {
		b.BorrowerID = *m.BorrowerID
	}
	return b, nil
}
