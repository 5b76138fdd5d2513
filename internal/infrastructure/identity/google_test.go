package identity

import (
	"context"
	"errors"
	"net/url"
	"testing"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type fakeChecker struct {
	err      error
	calls    int
	audience []string
}

func (f *fakeChecker) VerifyIDToken(_ string, audience []string) error {
	f.calls++
	f.audience = audience
	return f.err
}

func decodeTo(claims *googleAuthIDTokenVerifier.ClaimSet) func(string) (*googleAuthIDTokenVerifier.ClaimSet, error) {
	return func(string) (*googleAuthIDTokenVerifier.ClaimSet, error) { return claims, nil }
}

func TestGoogleVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("成功", func(t *testing.T) {
		checker := &fakeChecker{}
		v := newGoogleVerifier("client-1", checker, decodeTo(&googleAuthIDTokenVerifier.ClaimSet{
			Email:      "Ada@Example.com",
			GivenName:  "Ada",
			FamilyName: "Lovelace",
		}))

		identity, err := v.Verify(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", identity.Email)
		assert.Equal(t, "Ada", identity.FirstName)
		assert.Equal(t, "Lovelace", identity.LastName)
		assert.Equal(t, []string{"client-1"}, checker.audience)
	})

	t.Run("缺少given_name时拆分name", func(t *testing.T) {
		v := newGoogleVerifier("client-1", &fakeChecker{}, decodeTo(&googleAuthIDTokenVerifier.ClaimSet{
			Email: "grace@example.com",
			Name:  "Grace Brewster Hopper",
		}))

		identity, err := v.Verify(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, "Grace", identity.FirstName)
		assert.Equal(t, "Brewster Hopper", identity.LastName)
	})

	t.Run("空Token", func(t *testing.T) {
		checker := &fakeChecker{}
		v := newGoogleVerifier("client-1", checker, decodeTo(nil))
		_, err := v.Verify(ctx, "  ")
		assert.ErrorIs(t, err, apperrors.ErrIdentityError)
		assert.Zero(t, checker.calls)
	})

	t.Run("无效Token", func(t *testing.T) {
		v := newGoogleVerifier("client-1", &fakeChecker{err: errors.New("wrong signature")}, decodeTo(nil))
		_, err := v.Verify(ctx, "id-token")
		assert.ErrorIs(t, err, apperrors.ErrIdentityError)
	})

	t.Run("缺少邮箱", func(t *testing.T) {
		v := newGoogleVerifier("client-1", &fakeChecker{}, decodeTo(&googleAuthIDTokenVerifier.ClaimSet{GivenName: "Ada"}))
		_, err := v.Verify(ctx, "id-token")
		assert.ErrorIs(t, err, apperrors.ErrIdentityError)
	})
}

func TestGoogleVerifier_CircuitBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("无效Token不触发熔断", func(t *testing.T) {
		v := newGoogleVerifier("client-1", &fakeChecker{err: errors.New("expired")}, decodeTo(nil))
		for i := 0; i < 10; i++ {
			_, err := v.Verify(ctx, "id-token")
			assert.ErrorIs(t, err, apperrors.ErrIdentityError)
		}
		assert.Equal(t, circuitbreaker.StateClosed, v.breaker.State())
	})

	t.Run("网络故障连续5次后熔断", func(t *testing.T) {
		netErr := &url.Error{Op: "Get", URL: "https://www.googleapis.com/oauth2/v1/certs", Err: errors.New("connection refused")}
		checker := &fakeChecker{err: netErr}
		v := newGoogleVerifier("client-1", checker, decodeTo(nil))

		for i := 0; i < 5; i++ {
			_, err := v.Verify(ctx, "id-token")
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeServiceUnavailable))
		}
		assert.Equal(t, circuitbreaker.StateOpen, v.breaker.State())

		_, err := v.Verify(ctx, "id-token")
		assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
		assert.Equal(t, 5, checker.calls, "熔断后不再调用Google")
	})
}
