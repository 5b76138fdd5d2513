package auth

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/identity"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// SessionStore 会话与Token黑名单存储（Redis实现）
type SessionStore interface {
	SaveSession(ctx context.Context, userID string, sessionData map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID string) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase Google登录
// 设计说明：
// 1. 校验Google ID Token，取出邮箱与姓名
// 2. 按邮箱查找用户，不存在则创建（管理员白名单内的邮箱为ADMIN，其余为USER）
// 3. 签发2小时有效的会话Token，Token内嵌用户快照
// 4. 会话写入Redis，写入失败只记日志
type LoginUseCase struct {
	verifier     identity.Verifier
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	adminEmails  map[string]struct{}
	now          func() time.Time
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(
	verifier identity.Verifier,
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore SessionStore,
	cfg *config.Config,
) *LoginUseCase {
	admins := make(map[string]struct{}, len(cfg.Google.AdminEmails))
	for _, email := range cfg.Google.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}

	return &LoginUseCase{
		verifier:     verifier,
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		adminEmails:  admins,
		now:          time.Now,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	IDToken  string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	User      *appuser.UserResponse `json:"user"`
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (resp *LoginResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "library/auth", "Login")
	defer func() {
		metrics.ObserveLogin(err)
		tracing.EndSpan(span, err)
	}()

	// 1. 校验Google ID Token
	ident, err := uc.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}

	// 2. 查找或创建用户
	u, err := uc.userService.FindOrCreate(ctx, *ident, uc.roleFor(ident.Email))
	if err != nil {
		return nil, err
	}

	// 3. 签发会话Token
	token, err := uc.jwtManager.GenerateToken(jwt.UserSnapshot{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
	})
	if err != nil {
		return nil, err
	}

	// 4. 保存会话
	session := map[string]interface{}{
		"user_id":    u.ID,
		"email":      u.Email,
		"role":       string(u.Role),
		"login_at":   uc.now().Unix(),
		"ip":         req.ClientIP,
		"expires_at": token.ExpiresAt.Unix(),
	}
	if err := uc.sessionStore.SaveSession(ctx, u.ID, session, jwt.SessionTTL); err != nil {
		zap.L().Warn("保存会话失败", zap.String("user_id", u.ID), zap.Error(err))
	}

	return &LoginResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		User:      appuser.ToUserResponse(u),
	}, nil
}

// roleFor 首次登录时的角色
func (uc *LoginUseCase) roleFor(email string) user.Role {
	if _, ok := uc.adminEmails[strings.ToLower(email)]; ok {
		return user.RoleAdmin
	}
	return user.RoleUser
}

// LogoutUseCase 登出
// Token加入黑名单直到自然过期，并删除会话
type LogoutUseCase struct {
	jwtManager   *jwt.Manager
	sessionStore SessionStore
}

func NewLogoutUseCase(jwtManager *jwt.Manager, sessionStore SessionStore) *LogoutUseCase {
	return &LogoutUseCase{
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

// Execute token为已通过鉴权中间件校验的原始Token
func (uc *LogoutUseCase) Execute(ctx context.Context, token string) error {
	claims, err := uc.jwtManager.ParseToken(token)
	if err != nil {
		return err
	}

	if err := uc.sessionStore.AddToBlacklist(ctx, token, uc.jwtManager.RemainingTTL(claims)); err != nil {
		return err
	}
	return uc.sessionStore.DeleteSession(ctx, claims.User.ID)
}
