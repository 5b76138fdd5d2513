package book

import (
	"context"
	"io"
)

// CoverStorage 封面存储
type CoverStorage interface {
	SaveCover(ctx context.Context, filename string, size int64, content io.Reader) (string, error)
	RemoveCover(ctx context.Context, publicPath string) error
}

// CoverFile 上传的封面文件
type CoverFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}
