package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

const (
	ctxCurrentUser = "current_user"
	ctxToken       = "token"
)

// Blacklist 已注销Token查询（Redis实现）
type Blacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// Authenticator 鉴权中间件
// 设计说明：
// 1. 从Authorization: Bearer <token>提取会话Token
// 2. 已登出的Token（黑名单）直接拒绝
// 3. Token只用于定位用户，角色以数据库中的最新用户为准
type Authenticator struct {
	jwtManager  *jwt.Manager
	blacklist   Blacklist
	userService user.Service
}

// NewAuthenticator 创建鉴权中间件
func NewAuthenticator(jwtManager *jwt.Manager, blacklist Blacklist, userService user.Service) *Authenticator {
	return &Authenticator{
		jwtManager:  jwtManager,
		blacklist:   blacklist,
		userService: userService,
	}
}

// Authorize 要求登录且角色在允许列表内
// 使用方式：
//
//	books.POST("", auth.Authorize(user.RoleAdmin), bookHandler.Create)
func (a *Authenticator) Authorize(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		revoked, err := a.blacklist.IsInBlacklist(ctx, token)
		if err != nil {
			response.Error(c, err)
			return
		}
		if revoked {
			response.Error(c, apperrors.ErrTokenRevoked)
			return
		}

		claims, err := a.jwtManager.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			return
		}

		current, err := a.userService.FindByID(ctx, claims.User.ID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				response.Error(c, apperrors.ErrUnauthorized.WithMessage("用户不存在"))
				return
			}
			response.Error(c, err)
			return
		}
		if !current.HasRole(roles...) {
			response.Error(c, apperrors.ErrUnauthorized.WithMessage("无权访问该接口"))
			return
		}

		c.Set(ctxCurrentUser, current)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// BearerToken 提取Authorization头中的Bearer Token
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentUser 获取鉴权中间件注入的当前用户
func CurrentUser(c *gin.Context) *user.User {
	if v, ok := c.Get(ctxCurrentUser); ok {
		if u, ok := v.(*user.User); ok {
			return u
		}
	}
	return nil
}

// CurrentToken 获取当前请求的会话Token
func CurrentToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
