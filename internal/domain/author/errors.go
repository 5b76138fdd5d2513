package author

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 作者领域错误定义
var (
	// ErrAuthorNotFound 作者不存在
	ErrAuthorNotFound = apperrors.New(apperrors.ErrCodeAuthorNotFound, "作者不存在")

	// ErrFullNameDuplicate 作者名已存在
	ErrFullNameDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "作者名已存在")

	// ErrInvalidFullName 作者名为空
	ErrInvalidFullName = apperrors.New(apperrors.ErrCodeInvalidParams, "作者名不能为空")

	// ErrAuthorHasBooks 作者仍有关联图书
	ErrAuthorHasBooks = apperrors.New(apperrors.ErrCodeForbidden, "作者仍有关联图书，不能删除")
)
