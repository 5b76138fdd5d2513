package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "ISBN13已存在")

	// ErrInvalidISBN ISBN-13格式或校验位错误
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN13格式不正确")

	// ErrInvalidGenre 不在类型列表中
	ErrInvalidGenre = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的图书类型")

	// ErrMissingAuthors 至少需要一位作者
	ErrMissingAuthors = apperrors.New(apperrors.ErrCodeInvalidParams, "至少需要一位作者")

	// ErrMissingField 必填字段为空
	ErrMissingField = apperrors.New(apperrors.ErrCodeInvalidParams, "缺少必填字段")

	// ErrBookUnavailable 图书不存在或已借出
	ErrBookUnavailable = apperrors.New(apperrors.ErrCodeBookUnavailable, "图书不存在或已被借出")

	// ErrNotBorrower 图书不存在或不是当前借阅人
	ErrNotBorrower = apperrors.New(apperrors.ErrCodeNotBorrower, "图书不存在或您不是当前借阅人")

	// ErrInvalidBorrowDates 借阅日期不合法
	ErrInvalidBorrowDates = apperrors.New(apperrors.ErrCodeInvalidParams, "借阅日期不合法")

	// ErrBookBorrowed 已借出的图书不能删除
	ErrBookBorrowed = apperrors.New(apperrors.ErrCodeForbidden, "图书已借出，不能删除")

	// ErrInvalidSearch 搜索字段或关键词缺失
	ErrInvalidSearch = apperrors.New(apperrors.ErrCodeBadRequest, "搜索需要field(isbn|title|author|all)和keyword")
)
