package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

var snapshot = UserSnapshot{
	ID:        "6f1c1f5e-3a43-4c55-9d35-1b2f0d7f3a10",
	FirstName: "Ada",
	LastName:  "Lovelace",
	Email:     "ada@example.com",
	Role:      "ADMIN",
}

func TestManager_GenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", SessionTTL)

	token, err := m.GenerateToken(snapshot)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := m.ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, snapshot, claims.User)
	assert.Equal(t, snapshot.ID, claims.Subject)
	assert.InDelta(t, SessionTTL.Seconds(), m.RemainingTTL(claims).Seconds(), 5)
}

func TestManager_ParseToken_Errors(t *testing.T) {
	m := NewManager("test-secret", SessionTTL)

	t.Run("过期Token", func(t *testing.T) {
		past := NewManager("test-secret", SessionTTL)
		past.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
		token, err := past.GenerateToken(snapshot)
		require.NoError(t, err)

		_, err = m.ParseToken(token.Token)
		assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("签名密钥不同", func(t *testing.T) {
		other := NewManager("another-secret", SessionTTL)
		token, err := other.GenerateToken(snapshot)
		require.NoError(t, err)

		_, err = m.ParseToken(token.Token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("非HMAC算法", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{User: snapshot})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.ParseToken(raw)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("格式错误", func(t *testing.T) {
		_, err := m.ParseToken("not-a-token")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
