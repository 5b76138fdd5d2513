package handler

import (
	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// UserHandler 用户HTTP处理器
// 设计说明：
// 1. Handler只负责HTTP相关的事情：解析请求、调用应用层、返回响应
// 2. 本人/管理员的访问控制在领域服务中完成，这里只传入当前用户
type UserHandler struct {
	userUseCase   *appuser.UserUseCase
	deleteUseCase *appuser.DeleteUserUseCase
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userUseCase *appuser.UserUseCase, deleteUseCase *appuser.DeleteUserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase:   userUseCase,
		deleteUseCase: deleteUseCase,
	}
}

// Create 创建用户
// @Summary      创建用户
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateUserRequest true "用户信息"
// @Success      201 {object} response.Response{data=appuser.UserResponse}
// @Failure      400 {object} response.Response "参数错误或邮箱已存在"
// @Router       /api/v1/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindError(err))
		return
	}

	result, err := h.userUseCase.Create(c.Request.Context(), appuser.CreateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List 用户列表
// @Summary      用户列表
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]appuser.UserResponse}
// @Failure      401 {object} response.Response "未登录或非管理员"
// @Router       /api/v1/users [get]
func (h *UserHandler) List(c *gin.Context) {
	result, err := h.userUseCase.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Get 用户详情（普通用户只能查看自己）
// @Summary      用户详情
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "用户ID"
// @Success      200 {object} response.Response{data=appuser.UserResponse}
// @Failure      400 {object} response.Response "只能查看自己"
// @Failure      404 {object} response.Response "用户不存在"
// @Router       /api/v1/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	result, err := h.userUseCase.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update 部分更新用户（普通用户只能修改自己且不能改角色）
// @Summary      更新用户
// @Tags         用户
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "用户ID"
// @Param        request body dto.UpdateUserRequest true "要修改的字段"
// @Success      200 {object} response.Response{data=appuser.UserResponse}
// @Failure      400 {object} response.Response "参数错误或只能修改自己"
// @Router       /api/v1/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindError(err))
		return
	}

	result, err := h.userUseCase.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), appuser.UpdateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删除用户，其名下借阅的图书一并归还
// @Summary      删除用户
// @Tags         用户
// @Security     BearerAuth
// @Param        id path string true "用户ID"
// @Success      204
// @Failure      404 {object} response.Response "用户不存在"
// @Router       /api/v1/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.deleteUseCase.Execute(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
