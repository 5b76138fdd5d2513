package user

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 用户领域错误定义
var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.ErrUserNotFound

	// ErrEmailDuplicate 邮箱已存在
	ErrEmailDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "邮箱已被注册")

	// ErrInvalidEmail 邮箱格式不正确
	ErrInvalidEmail = apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")

	// ErrInvalidName 姓名为空
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "firstName和lastName不能为空")

	// ErrInvalidRole 角色非法
	ErrInvalidRole = apperrors.New(apperrors.ErrCodeInvalidParams, "角色只能是USER或ADMIN")

	// ErrAccessDenied 只能访问自己的信息
	ErrAccessDenied = apperrors.New(apperrors.ErrCodeNotSelf, "只能查看或修改自己的信息")

	// ErrRoleChangeDenied 普通用户不能修改角色
	ErrRoleChangeDenied = apperrors.New(apperrors.ErrCodeRoleChange, "无权修改角色")
)
