package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/infrastructure/config"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// PublicPrefix 静态文件挂载路径
const PublicPrefix = "/uploads"

const coverDir = "books"

var (
	// ErrFileTooLarge 超过upload.max_size
	ErrFileTooLarge = apperrors.New(apperrors.ErrCodeInvalidParams, "上传文件过大")

	// ErrUnsupportedType 不是图片
	ErrUnsupportedType = apperrors.New(apperrors.ErrCodeInvalidParams, "封面只支持jpeg/png/gif/webp图片")

	// ErrInvalidFilename 文件名非法
	ErrInvalidFilename = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的文件名")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// LocalStorage 本地磁盘存储
// 文件写入 {dir}/books/{毫秒时间戳}-{原文件名}，对外路径为 /uploads/books/...
type LocalStorage struct {
	root    string
	maxSize int64
	now     func() time.Time
}

// NewLocalStorage 创建本地存储并确保目录存在
func NewLocalStorage(cfg *config.Config) (*LocalStorage, error) {
	s := &LocalStorage{
		root:    cfg.Upload.Dir,
		maxSize: cfg.Upload.MaxSize,
		now:     time.Now,
	}
	if err := os.MkdirAll(filepath.Join(s.root, coverDir), 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return s, nil
}

// Root 上传根目录（静态文件服务使用）
func (s *LocalStorage) Root() string {
	return s.root
}

// SaveCover 保存封面，返回对外访问路径
// 校验顺序：声明大小 → 文件名 → 内容类型（嗅探前512字节） → 实际写入大小
func (s *LocalStorage) SaveCover(ctx context.Context, filename string, size int64, content io.Reader) (string, error) {
	if size > s.maxSize {
		return "", ErrFileTooLarge
	}

	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." || strings.TrimSpace(base) == "" {
		return "", ErrInvalidFilename
	}

	br := bufio.NewReaderSize(content, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", apperrors.WrapCode(err, apperrors.ErrCodeStorageError, "读取上传文件失败")
	}
	if !isAllowed(mimetype.Detect(head)) {
		return "", ErrUnsupportedType
	}

	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), base)
	dst := filepath.Join(s.root, coverDir, name)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", apperrors.WrapCode(err, apperrors.ErrCodeStorageError, "保存封面失败")
	}

	written, err := io.Copy(f, io.LimitReader(br, s.maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxSize {
		err = ErrFileTooLarge
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(dst)
		if apperrors.IsAppError(err) {
			return "", err
		}
		return "", apperrors.WrapCode(err, apperrors.ErrCodeStorageError, "保存封面失败")
	}

	return path.Join(PublicPrefix, coverDir, name), nil
}

// RemoveCover 删除封面（文件不存在视为成功，可重复调用）
func (s *LocalStorage) RemoveCover(_ context.Context, publicPath string) error {
	clean := path.Clean(publicPath)
	if !strings.HasPrefix(clean, PublicPrefix+"/"+coverDir+"/") {
		zap.L().Warn("忽略非上传目录下的文件", zap.String("path", publicPath))
		return nil
	}
	rel := strings.TrimPrefix(clean, PublicPrefix+"/")

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.WrapCode(err, apperrors.ErrCodeStorageError, "删除封面失败")
	}
	return nil
}

func isAllowed(m *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}
