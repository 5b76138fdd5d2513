package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// unreachableStore 指向不可用地址的会话存储，用于验证错误转换
func unreachableStore(t *testing.T) *SessionStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "session:42", sessionKey("42"))

	key := blacklistKey("header.payload.signature")
	assert.Len(t, key, len("blacklist:")+64)
	assert.Equal(t, key, blacklistKey("header.payload.signature"))
	assert.NotEqual(t, key, blacklistKey("other"))
}

func TestSessionStore_RedisUnavailable(t *testing.T) {
	ctx := context.Background()
	store := unreachableStore(t)

	_, err := store.IsInBlacklist(ctx, "token")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRedisError))

	err = store.SaveSession(ctx, "u1", map[string]interface{}{"ip": "127.0.0.1"}, time.Minute)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRedisError))

	err = store.AddToBlacklist(ctx, "token", time.Minute)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRedisError))
}

func TestSessionStore_AddExpiredToken(t *testing.T) {
	// 剩余有效期为0时不访问Redis
	store := unreachableStore(t)
	assert.NoError(t, store.AddToBlacklist(context.Background(), "token", 0))
}
