package dto

import (
	"encoding/json"
	"mime/multipart"

	"github.com/gin-gonic/gin/binding"

	appbook "github.com/xiebiao/library/internal/application/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// LoginRequest 登录请求（也可通过Authorization: Bearer <id token>传递）
type LoginRequest struct {
	IDToken string `json:"idToken" example:"eyJhbGciOiJSUzI1NiIs..."`
}

// AuthorRequest 创建/更新作者
type AuthorRequest struct {
	FullName  string `json:"fullName" binding:"required,max=191" example:"Thomas Hardy"`
	Biography string `json:"biography" binding:"max=5000" example:"English novelist and poet"`
}

// CreateUserRequest 创建用户
type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100" example:"Ada"`
	LastName  string `json:"lastName" binding:"required,max=100" example:"Lovelace"`
	Email     string `json:"email" binding:"required,email" example:"ada@example.com"`
	Role      string `json:"role" binding:"omitempty,oneof=USER ADMIN" example:"USER"`
}

// UpdateUserRequest 部分更新用户，未出现的字段不修改
type UpdateUserRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=100"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Role      *string `json:"role" binding:"omitempty,oneof=USER ADMIN"`
}

// SearchBooksQuery 图书搜索参数
type SearchBooksQuery struct {
	Field   string `form:"field" binding:"required,oneof=isbn title author all" example:"title"`
	Keyword string `form:"keyword" binding:"required" example:"tess"`
}

// BorrowRequest 借书
type BorrowRequest struct {
	BorrowDate *Date `json:"borrowDate" binding:"required" swaggertype:"string" example:"2026-10-01"`
	ReturnDate *Date `json:"returnDate" binding:"required" swaggertype:"string" example:"2026-10-15"`
}

// UpdateBookRequest 更新图书基本信息，未出现的字段不修改
type UpdateBookRequest struct {
	Title         *string  `json:"title" binding:"omitempty,min=1,max=255"`
	Description   *string  `json:"description" binding:"omitempty,min=1"`
	Authors       []string `json:"authors" binding:"omitempty,min=1,dive,required"`
	ISBN13        *string  `json:"ISBN13" binding:"omitempty,isbn13"`
	Publisher     *string  `json:"publisher" binding:"omitempty,min=1,max=255"`
	PublishedDate *Date    `json:"publishedDate" swaggertype:"string"`
	Genres        []string `json:"genres" binding:"omitempty,dive,genre"`
}

// ToUseCase 转为用例请求
func (r UpdateBookRequest) ToUseCase() appbook.UpdateBookRequest {
	req := appbook.UpdateBookRequest{
		Title:       r.Title,
		Description: r.Description,
		Authors:     r.Authors,
		ISBN13:      r.ISBN13,
		Publisher:   r.Publisher,
		Genres:      r.Genres,
	}
	if r.PublishedDate != nil {
		t := r.PublishedDate.Time
		req.PublishedDate = &t
	}
	return req
}

// CreateBookForm 创建图书（multipart/form-data）
// authors、genres为JSON数组字符串，如 ["Thomas Hardy"]
type CreateBookForm struct {
	Title         string                `form:"title" binding:"required,max=255"`
	Description   string                `form:"description" binding:"required"`
	Authors       string                `form:"authors" binding:"required"`
	ISBN13        string                `form:"ISBN13" binding:"required,isbn13"`
	Publisher     string                `form:"publisher" binding:"required,max=255"`
	PublishedDate string                `form:"publishedDate" binding:"required"`
	Genres        string                `form:"genres"`
	Image         *multipart.FileHeader `form:"image" binding:"required" swaggerignore:"true"`
}

// listFields multipart中数组字段解析后再校验
type listFields struct {
	Authors []string `binding:"required,min=1,dive,required"`
	Genres  []string `binding:"dive,genre"`
}

// ToUseCase 解析数组与日期字段并打开封面文件
// 返回的closer必须在用例执行完后调用
func (f CreateBookForm) ToUseCase() (appbook.CreateBookRequest, func() error, error) {
	var req appbook.CreateBookRequest

	lists, err := parseLists(f.Authors, f.Genres)
	if err != nil {
		return req, nil, err
	}

	published, err := ParseDate(f.PublishedDate)
	if err != nil {
		return req, nil, err
	}

	cover, closer, err := OpenCover(f.Image)
	if err != nil {
		return req, nil, err
	}

	return appbook.CreateBookRequest{
		Title:         f.Title,
		Description:   f.Description,
		Authors:       lists.Authors,
		ISBN13:        f.ISBN13,
		Publisher:     f.Publisher,
		PublishedDate: published,
		Genres:        lists.Genres,
		Cover:         cover,
	}, closer, nil
}

func parseLists(authors, genres string) (listFields, error) {
	var lists listFields
	if err := json.Unmarshal([]byte(authors), &lists.Authors); err != nil {
		return lists, apperrors.ErrInvalidParams.WithMessage("authors必须是JSON字符串数组")
	}
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &lists.Genres); err != nil {
			return lists, apperrors.ErrInvalidParams.WithMessage("genres必须是JSON字符串数组")
		}
	}
	if lists.Genres == nil {
		lists.Genres = []string{}
	}
	if err := binding.Validator.ValidateStruct(&lists); err != nil {
		return lists, BindError(err)
	}
	return lists, nil
}

// OpenCover 打开上传的封面文件
func OpenCover(fh *multipart.FileHeader) (*appbook.CoverFile, func() error, error) {
	if fh == nil {
		return nil, nil, apperrors.ErrInvalidParams.WithMessage("缺少封面图片")
	}
	file, err := fh.Open()
	if err != nil {
		return nil, nil, apperrors.ErrBindError.WithMessage("读取上传文件失败")
	}
	return &appbook.CoverFile{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  file,
	}, file.Close, nil
}
