package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// SessionTTL 会话Token有效期（固定2小时）
const SessionTTL = 2 * time.Hour

const issuer = "library"

// Manager JWT管理器
// 设计说明：
// 1. 登录成功后签发单个会话Token（HS256）
// 2. Token携带签发时刻的用户快照，鉴权时仍会按ID回查最新用户
type Manager struct {
	secret string        // JWT签名密钥
	ttl    time.Duration // Token有效期
	now    func() time.Time
}

// NewManager 创建JWT管理器
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// UserSnapshot 签发时刻的用户信息
type UserSnapshot struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Claims 自定义JWT Claims
type Claims struct {
	User UserSnapshot `json:"user"`
	jwt.RegisteredClaims
}

// Token 签发结果
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GenerateToken 为用户签发会话Token
func (m *Manager) GenerateToken(user UserSnapshot) (*Token, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Token失败")
	}

	return &Token{Token: signed, ExpiresAt: expiresAt}, nil
}

// ParseToken 解析并验证Token
// 校验签名算法、签名、exp、nbf；过期返回ErrTokenExpired，其余返回ErrInvalidToken
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.User.ID == "" {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}

// RemainingTTL Token剩余有效期（用于登出时设置黑名单过期时间）
func (m *Manager) RemainingTTL(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if ttl < 0 {
		return 0
	}
	return ttl
}
