package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	appauth "github.com/xiebiao/library/internal/application/auth"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// AuthHandler 登录/登出处理器
type AuthHandler struct {
	loginUseCase  *appauth.LoginUseCase
	logoutUseCase *appauth.LogoutUseCase
}

// NewAuthHandler 创建登录处理器
func NewAuthHandler(loginUseCase *appauth.LoginUseCase, logoutUseCase *appauth.LogoutUseCase) *AuthHandler {
	return &AuthHandler{
		loginUseCase:  loginUseCase,
		logoutUseCase: logoutUseCase,
	}
}

// Login Google登录
// @Summary      Google登录
// @Description  校验Google ID Token，首次登录自动创建用户，返回2小时有效的会话Token
// @Description  ID Token可放在请求体{"idToken"}或Authorization: Bearer头中
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest false "Google ID Token"
// @Success      200 {object} response.Response{data=appauth.LoginResponse}
// @Failure      401 {object} response.Response "ID Token无效"
// @Failure      503 {object} response.Response "Google服务不可用"
// @Router       /api/v1/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, dto.BindError(err))
		return
	}

	idToken := req.IDToken
	if idToken == "" {
		idToken, _ = middleware.BearerToken(c)
	}
	if idToken == "" {
		response.Error(c, apperrors.ErrUnauthorized.WithMessage("缺少Google ID Token"))
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appauth.LoginRequest{
		IDToken:  idToken,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 登出，当前Token加入黑名单直到过期
// @Summary      登出
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.logoutUseCase.Execute(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
