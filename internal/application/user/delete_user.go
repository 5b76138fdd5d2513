package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// DeleteUserUseCase 删除用户
// 设计说明：
// 1. 先归还该用户借出的全部图书，再删除用户，两步在同一事务中
// 2. 保证不会留下borrower_id指向已删除用户的图书
type DeleteUserUseCase struct {
	userRepo  user.Repository
	bookRepo  book.Repository
	txManager *mysql.TxManager
}

func NewDeleteUserUseCase(userRepo user.Repository, bookRepo book.Repository, txManager *mysql.TxManager) *DeleteUserUseCase {
	return &DeleteUserUseCase{
		userRepo:  userRepo,
		bookRepo:  bookRepo,
		txManager: txManager,
	}
}

func (uc *DeleteUserUseCase) Execute(ctx context.Context, id string) error {
	return uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		if _, err := uc.userRepo.FindByID(ctx, id); err != nil {
			return err
		}

		released, err := uc.bookRepo.ReleaseByBorrower(ctx, id)
		if err != nil {
			return err
		}
		if released > 0 {
			zap.L().Info("删除用户时归还其借阅图书", zap.String("user_id", id), zap.Int64("books", released))
		}

		return uc.userRepo.Delete(ctx, id)
	})
}
