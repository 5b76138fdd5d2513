package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// userRepository 用户仓储实现
// 设计说明：
// 1. 实现domain/user/repository.go定义的接口
// 2. BorrowedBooks由books.borrower_id回填（按借出日期排序），users表不保存借阅列表
// 3. 处理数据库特定的错误（如邮箱重复），转换为业务错误
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
// 注意：返回的是domain层的接口类型，不是具体类型（依赖倒置）
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Create 创建用户
// 学习要点：邮箱唯一性由数据库UNIQUE索引保证（而非应用层SELECT再INSERT）
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := &UserModel{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return user.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建用户失败")
	}

	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	if u.BorrowedBooks == nil {
		u.BorrowedBooks = []string{}
	}
	return nil
}

// FindByID 根据ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail 根据邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// List 按firstName、lastName升序
// 借阅列表一次查询后按用户分组，避免N+1
func (r *userRepository) List(ctx context.Context) ([]*user.User, error) {
	db := getDB(ctx, r.db)

	var models []UserModel
	if err := db.Order("first_name ASC").Order("last_name ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询用户列表失败")
	}

	var loans []BookModel
	err := db.Select("id", "borrower_id").
		Where("borrower_id IS NOT NULL").
		Order("borrow_date ASC").
		Find(&loans).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询借阅信息失败")
	}

	borrowed := make(map[string][]string)
	for _, l := range loans {
		borrowed[*l.BorrowerID] = append(borrowed[*l.BorrowerID], l.ID)
	}

	users := make([]*user.User, len(models))
	for i := range models {
		users[i] = toUserEntity(&models[i], borrowed[models[i].ID])
	}
	return users, nil
}

// Update 更新用户信息
func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	result := getDB(ctx, r.db).Model(&UserModel{ID: u.ID}).Updates(map[string]interface{}{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"role":       string(u.Role),
		"updated_at": u.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return user.ErrEmailDuplicate
		}
		return apperrors.Wrap(result.Error, "更新用户失败")
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Delete 删除用户（硬删除）
// 调用方需先释放该用户借阅的图书（同一事务）
func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := getDB(ctx, r.db).Where("id = ?", id).Delete(&UserModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除用户失败")
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	db := getDB(ctx, r.db)

	var model UserModel
	if err := db.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "查询用户失败")
	}

	var bookIDs []string
	err := db.Model(&BookModel{}).
		Where("borrower_id = ?", model.ID).
		Order("borrow_date ASC").
		Pluck("id", &bookIDs).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询借阅信息失败")
	}

	return toUserEntity(&model, bookIDs), nil
}

// toUserEntity GORM模型 → 领域实体
func toUserEntity(m *UserModel, borrowed []string) *user.User {
	if borrowed == nil {
		borrowed = []string{}
	}
	return &user.User{
		ID:            m.ID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Email:         m.Email,
		Role:          user.Role(m.Role),
		BorrowedBooks: borrowed,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
