package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/author"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

// authorRepository 作者仓储实现
type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository 创建作者仓储
func NewAuthorRepository(db *gorm.DB) author.Repository {
	return &authorRepository{db: db}
}

// Create 创建作者
// 名字唯一性由数据库UNIQUE索引保证，并发解析同名作者时其中一个会得到ErrFullNameDuplicate
func (r *authorRepository) Create(ctx context.Context, a *author.Author) error {
	model := toAuthorModel(a)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return author.ErrFullNameDuplicate
		}
		return apperrors.Wrap(err, "创建作者失败")
	}

	a.CreatedAt = model.CreatedAt
	a.UpdatedAt = model.UpdatedAt
	metrics.IncAuthorsCreated()
	return nil
}

func (r *authorRepository) FindByID(ctx context.Context, id string) (*author.Author, error) {
	var model AuthorModel
	if err := getDB(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, author.ErrAuthorNotFound
		}
		return nil, apperrors.Wrap(err, "查询作者失败")
	}
	return toAuthorEntity(&model), nil
}

func (r *authorRepository) FindByIDs(ctx context.Context, ids []string) ([]*author.Author, error) {
	var models []AuthorModel
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询作者失败")
	}
	return toAuthorEntities(models), nil
}

// FindByFullName 精确匹配（区分大小写）
// full_name已是二进制排序规则，这里再按字节比较一次
func (r *authorRepository) FindByFullName(ctx context.Context, fullName string) (*author.Author, error) {
	var models []AuthorModel
	if err := getDB(ctx, r.db).Where("full_name = ?", fullName).Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询作者失败")
	}

	for i := range models {
		if models[i].FullName == fullName {
			return toAuthorEntity(&models[i]), nil
		}
	}
	return nil, author.ErrAuthorNotFound
}

func (r *authorRepository) SearchByName(ctx context.Context, keyword string) ([]*author.Author, error) {
	var models []AuthorModel
	err := getDB(ctx, r.db).
		Where("LOWER(full_name) LIKE ? ESCAPE '!'", containsPattern(keyword)).
		Order("full_name ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "搜索作者失败")
	}
	return toAuthorEntities(models), nil
}

func (r *authorRepository) List(ctx context.Context) ([]*author.Author, error) {
	var models []AuthorModel
	if err := getDB(ctx, r.db).Order("full_name ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询作者列表失败")
	}
	return toAuthorEntities(models), nil
}

func (r *authorRepository) Update(ctx context.Context, a *author.Author) error {
	result := getDB(ctx, r.db).Model(&AuthorModel{ID: a.ID}).Updates(map[string]interface{}{
		"full_name":  a.FullName,
		"biography":  a.Biography,
		"updated_at": a.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return author.ErrFullNameDuplicate
		}
		return apperrors.Wrap(result.Error, "更新作者失败")
	}
	if result.RowsAffected == 0 {
		return author.ErrAuthorNotFound
	}
	return nil
}

func (r *authorRepository) Delete(ctx context.Context, id string) error {
	result := getDB(ctx, r.db).Where("id = ?", id).Delete(&AuthorModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除作者失败")
	}
	if result.RowsAffected == 0 {
		return author.ErrAuthorNotFound
	}
	return nil
}

func toAuthorModel(a *author.Author) *AuthorModel {
	return &AuthorModel{
		ID:        a.ID,
		FullName:  a.FullName,
		Biography: a.Biography,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAuthorEntity(m *AuthorModel) *author.Author {
	return &author.Author{
		ID:        m.ID,
		FullName:  m.FullName,
		Biography: m.Biography,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toAuthorEntities(models []AuthorModel) []*author.Author {
	authors := make([]*author.Author, len(models))
	for i := range models {
		authors[i] = toAuthorEntity(&models[i])
	}
	return authors
}
