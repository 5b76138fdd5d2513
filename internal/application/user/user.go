package user

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/user"
)

// UserResponse 用户响应DTO
type UserResponse struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Role          user.Role `json:"role"`
	BorrowedBooks []string  `json:"borrowedBooks"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToUserResponse 领域实体转响应DTO
func ToUserResponse(u *user.User) *UserResponse {
	borrowed := u.BorrowedBooks
	if borrowed == nil {
		borrowed = []string{}
	}
	return &UserResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Role:          u.Role,
		BorrowedBooks: borrowed,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// UserUseCase 用户管理用例
// 权限规则（USER只能读写自己、不能改角色）由领域服务按actor判断
type UserUseCase struct {
	userService user.Service
}

func NewUserUseCase(userService user.Service) *UserUseCase {
	return &UserUseCase{userService: userService}
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// UpdateUserRequest 部分更新请求，nil表示不修改
type UpdateUserRequest struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *string
}

func (uc *UserUseCase) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	role := user.RoleUser
	if req.Role != "" {
		r, err := user.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	u, err := uc.userService.CreateUser(ctx, req.FirstName, req.LastName, req.Email, role)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}

func (uc *UserUseCase) Get(ctx context.Context, actor *user.User, id string) (*UserResponse, error) {
	u, err := uc.userService.GetUser(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}

// List 按firstName、lastName排序
func (uc *UserUseCase) List(ctx context.Context) ([]*UserResponse, error) {
	users, err := uc.userService.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		list = append(list, ToUserResponse(u))
	}
	return list, nil
}

func (uc *UserUseCase) Update(ctx context.Context, actor *user.User, id string, req UpdateUserRequest) (*UserResponse, error) {
	params := user.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}
	if req.Role != nil {
		r, err := user.ParseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		params.Role = &r
	}

	u, err := uc.userService.UpdateUser(ctx, actor, id, params)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(u), nil
}
