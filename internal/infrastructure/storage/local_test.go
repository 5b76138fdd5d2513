package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// pngHeader 最小PNG文件头，足够让mimetype识别
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func newTestStorage(t *testing.T, maxSize int64) *LocalStorage {
	t.Helper()
	cfg := &config.Config{Upload: config.UploadConfig{Dir: t.TempDir(), MaxSize: maxSize}}
	s, err := NewLocalStorage(cfg)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestLocalStorage_SaveAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, 1024)

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 100)...)
	public, err := s.SaveCover(ctx, "../../etc/tess cover.png", int64(len(content)), bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/books/1700000000000-tess cover.png", public)

	onDisk := filepath.Join(s.Root(), "books", "1700000000000-tess cover.png")
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	require.NoError(t, s.RemoveCover(ctx, public))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, s.RemoveCover(ctx, public))
	// 上传目录之外的路径被忽略
	assert.NoError(t, s.RemoveCover(ctx, "/uploads/../config/config.yaml"))
}

func TestLocalStorage_Rejects(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, 64)

	t.Run("声明大小超限", func(t *testing.T) {
		_, err := s.SaveCover(ctx, "a.png", 65, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("实际大小超限且不留下文件", func(t *testing.T) {
		content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 100)...)
		_, err := s.SaveCover(ctx, "big.png", 10, bytes.NewReader(content))
		assert.ErrorIs(t, err, ErrFileTooLarge)

		entries, err := os.ReadDir(filepath.Join(s.Root(), "books"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("非图片", func(t *testing.T) {
		_, err := s.SaveCover(ctx, "a.png", 5, strings.NewReader("hello"))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("空文件名", func(t *testing.T) {
		_, err := s.SaveCover(ctx, "", 16, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, ErrInvalidFilename)
	})
}
