package identity

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

const breakerName = "google-identity"

// Verifier 校验第三方ID Token并返回身份信息
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*user.Identity, error)
}

// tokenChecker 签名、签发方、受众、有效期校验（会拉取Google公钥）
type tokenChecker interface {
	VerifyIDToken(idToken string, audience []string) error
}

// GoogleVerifier Google ID Token校验器
// 设计说明：
// 1. 校验通过后再Decode取出email、given_name、family_name
// 2. 拉取Google公钥的网络调用由熔断器保护，熔断时返回503
// 3. Token本身无效属于客户端错误，不计入熔断失败
type GoogleVerifier struct {
	clientID string
	checker  tokenChecker
	decode   func(idToken string) (*googleAuthIDTokenVerifier.ClaimSet, error)
	breaker  *circuitbreaker.CircuitBreaker
}

// NewGoogleVerifier 创建Google校验器
func NewGoogleVerifier(cfg *config.Config) *GoogleVerifier {
	return newGoogleVerifier(cfg.Google.ClientID, &googleAuthIDTokenVerifier.Verifier{}, googleAuthIDTokenVerifier.Decode)
}

func newGoogleVerifier(clientID string, checker tokenChecker, decode func(string) (*googleAuthIDTokenVerifier.ClaimSet, error)) *GoogleVerifier {
	breaker := circuitbreaker.NewCircuitBreaker(breakerName, circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c circuitbreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperrors.ErrIdentityError)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			zap.L().Warn("熔断器状态变化",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetCircuitBreakerState(name, int(to))
		},
	})

	return &GoogleVerifier{
		clientID: clientID,
		checker:  checker,
		decode:   decode,
		breaker:  breaker,
	}
}

// Verify 校验ID Token
// 错误：Token无效 → ErrIdentityError(401)；熔断或Google不可达 → ErrServiceUnavailable(503)
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*user.Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperrors.ErrIdentityError
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var identity *user.Identity
	err := v.breaker.Execute(func() error {
		if err := v.checker.VerifyIDToken(idToken, []string{v.clientID}); err != nil {
			if isNetworkError(err) {
				return apperrors.WrapCode(err, apperrors.ErrCodeServiceUnavailable, "身份服务暂不可用")
			}
			return apperrors.WrapCode(err, apperrors.ErrCodeIdentityError, "身份令牌校验失败")
		}

		claims, err := v.decode(idToken)
		if err != nil {
			return apperrors.WrapCode(err, apperrors.ErrCodeIdentityError, "身份令牌校验失败")
		}
		identity = toIdentity(claims)
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return nil, apperrors.ErrServiceUnavailable
	default:
		return nil, err
	}

	if identity.Email == "" {
		return nil, apperrors.ErrIdentityError.WithMessage("身份令牌中缺少邮箱")
	}
	return identity, nil
}

// toIdentity 优先使用given_name/family_name，缺失时按空格拆分name
func toIdentity(c *googleAuthIDTokenVerifier.ClaimSet) *user.Identity {
	first, last := c.GivenName, c.FamilyName
	if first == "" && last == "" {
		parts := strings.Fields(c.Name)
		if len(parts) > 0 {
			first = parts[0]
			last = strings.Join(parts[1:], " ")
		}
	}
	return &user.Identity{
		Email:     strings.ToLower(strings.TrimSpace(c.Email)),
		FirstName: first,
		LastName:  last,
	}
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}
