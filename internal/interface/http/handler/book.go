package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// BookHandler 图书HTTP处理器
// 设计说明：
// 1. 创建与换封面走multipart，其余接口走JSON
// 2. 借还书的操作人取自鉴权中间件注入的当前用户
type BookHandler struct {
	createUseCase *appbook.CreateBookUseCase
	queryUseCase  *appbook.BookQueryUseCase
	updateUseCase *appbook.UpdateBookUseCase
	imageUseCase  *appbook.UpdateBookImageUseCase
	deleteUseCase *appbook.DeleteBookUseCase
	loanUseCase   *appbook.LoanUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	createUseCase *appbook.CreateBookUseCase,
	queryUseCase *appbook.BookQueryUseCase,
	updateUseCase *appbook.UpdateBookUseCase,
	imageUseCase *appbook.UpdateBookImageUseCase,
	deleteUseCase *appbook.DeleteBookUseCase,
	loanUseCase *appbook.LoanUseCase,
) *BookHandler {
	return &BookHandler{
		createUseCase: createUseCase,
		queryUseCase:  queryUseCase,
		updateUseCase: updateUseCase,
		imageUseCase:  imageUseCase,
		deleteUseCase: deleteUseCase,
		loanUseCase:   loanUseCase,
	}
}

// Create 创建图书
// @Summary      创建图书
// @Description  作者按姓名解析，不存在的作者自动创建
// @Tags         图书
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title formData string true "书名"
// @Param        description formData string true "简介"
// @Param        authors formData string true "作者姓名JSON数组"
// @Param        ISBN13 formData string true "ISBN-13"
// @Param        publisher formData string true "出版社"
// @Param        publishedDate formData string true "出版日期"
// @Param        genres formData string false "类型JSON数组"
// @Param        image formData file true "封面图片"
// @Success      201 {object} response.Response{data=appbook.BookResponse}
// @Failure      400 {object} response.Response "参数错误或ISBN重复"
// @Failure      401 {object} response.Response "未登录或非管理员"
// @Router       /api/v1/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var form dto.CreateBookForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, dto.BindError(err))
		return
	}

	req, closeCover, err := form.ToUseCase()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeCover()

	result, err := h.createUseCase.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List 图书列表（按书名升序、出版日期降序）
// @Summary      图书列表
// @Tags         图书
// @Produce      json
// @Success      200 {object} response.Response{data=[]appbook.BookResponse}
// @Router       /api/v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	result, err := h.queryUseCase.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Search 搜索图书
// @Summary      搜索图书
// @Description  field=all时依次拼接isbn、title、author的结果，不去重
// @Tags         图书
// @Produce      json
// @Param        field query string true "isbn|title|author|all"
// @Param        keyword query string true "关键字"
// @Success      200 {object} response.Response{data=[]appbook.BookResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/books/search [get]
func (h *BookHandler) Search(c *gin.Context) {
	var q dto.SearchBooksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, dto.BindError(err))
		return
	}

	result, err := h.queryUseCase.Search(c.Request.Context(), q.Field, q.Keyword)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Get 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	result, err := h.queryUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateBasicInfo 更新图书基本信息
// @Summary      更新图书基本信息
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Param        request body dto.UpdateBookRequest true "要修改的字段"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id}/basicInfo [put]
func (h *BookHandler) UpdateBasicInfo(c *gin.Context) {
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindError(err))
		return
	}

	result, err := h.updateUseCase.Execute(c.Request.Context(), c.Param("id"), req.ToUseCase())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateImage 更换封面
// @Summary      更换封面
// @Tags         图书
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Param        image formData file true "封面图片"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      400 {object} response.Response "文件不合法"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id}/image [put]
func (h *BookHandler) UpdateImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error(c, apperrors.ErrInvalidParams.WithMessage("缺少封面图片"))
		return
	}

	cover, closeCover, err := dto.OpenCover(fh)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeCover()

	result, err := h.imageUseCase.Execute(c.Request.Context(), c.Param("id"), cover)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Borrow 借书
// @Summary      借书
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Param        request body dto.BorrowRequest true "借阅日期"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      400 {object} response.Response "图书不存在或已借出"
// @Router       /api/v1/books/{id}/borrowInfo [put]
func (h *BookHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindError(err))
		return
	}

	result, err := h.loanUseCase.Borrow(c.Request.Context(), middleware.CurrentUser(c), appbook.BorrowRequest{
		BookID:     c.Param("id"),
		BorrowDate: req.BorrowDate.Time,
		ReturnDate: req.ReturnDate.Time,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Return 还书
// @Summary      还书
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      400 {object} response.Response "图书不存在或不是当前借阅人"
// @Router       /api/v1/books/{id}/returnInfo [put]
func (h *BookHandler) Return(c *gin.Context) {
	result, err := h.loanUseCase.Return(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删除图书（借出中的图书返回403）
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      403 {object} response.Response "图书已借出"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	result, err := h.deleteUseCase.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
