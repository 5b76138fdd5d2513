package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code是业务错误码，前三位就是对应的HTTP状态码（40402 → 404）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，WithMessage派生出的错误与原错误视为同一种
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus 由错误码推导HTTP状态码
func (e *AppError) HTTPStatus() int {
	status := e.Code / 100
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// WithMessage 复制错误并替换提示信息（错误码不变）
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{Code: e.Code, Message: message, Err: e.Err}
}

// WithMessagef 格式化版本的WithMessage
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WrapCode 包装系统错误并指定错误码（如Redis错误、存储错误）
func WrapCode(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：错误码 = HTTP状态码 * 100 + 序号
// - 400xx: 参数错误、前置条件不满足、唯一性冲突
// - 401xx: 未认证
// - 403xx: 已认证但状态不允许
// - 404xx: 资源不存在
// - 5xxxx: 服务端错误

const (
	// 系统级错误码
	ErrCodeInternal           = 50000 // 内部错误
	ErrCodeDatabaseError      = 50001 // 数据库错误
	ErrCodeRedisError         = 50002 // Redis错误
	ErrCodeStorageError       = 50003 // 文件存储错误
	ErrCodeServiceUnavailable = 50300 // 外部服务不可用（熔断）

	// 请求错误
	ErrCodeBadRequest      = 40000 // 请求错误(通用)
	ErrCodeInvalidParams   = 40001 // 参数错误
	ErrCodeBindError       = 40002 // 参数绑定失败
	ErrCodeInvalidID       = 40003 // ID格式错误
	ErrCodeDuplicateEntry  = 40009 // 唯一性冲突
	ErrCodeBookUnavailable = 40010 // 图书不可借
	ErrCodeNotBorrower     = 40011 // 不是当前借阅人
	ErrCodeNotSelf         = 40012 // 只能操作自己的用户信息
	ErrCodeRoleChange      = 40013 // 无权修改角色

	// 认证错误
	ErrCodeUnauthorized  = 40100 // 未登录
	ErrCodeInvalidToken  = 40101 // Token无效
	ErrCodeTokenExpired  = 40102 // Token过期
	ErrCodeTokenRevoked  = 40103 // Token已注销
	ErrCodeIdentityError = 40104 // 第三方身份校验失败

	// 禁止操作
	ErrCodeForbidden = 40300 // 无权限或状态不允许

	// 资源不存在
	ErrCodeNotFound         = 40400 // 资源不存在(通用)
	ErrCodeUserNotFound     = 40401 // 用户不存在
	ErrCodeBookNotFound     = 40402 // 图书不存在
	ErrCodeAuthorNotFound   = 40403 // 作者不存在
	ErrCodeEndpointNotFound = 40499 // 接口不存在
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal           = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError      = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError         = New(ErrCodeRedisError, "缓存服务错误")
	ErrServiceUnavailable = New(ErrCodeServiceUnavailable, "依赖服务暂不可用，请稍后重试")

	// 请求错误
	ErrBadRequest     = New(ErrCodeBadRequest, "无效的请求")
	ErrInvalidParams  = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError      = New(ErrCodeBindError, "参数格式错误")
	ErrInvalidID      = New(ErrCodeInvalidID, "无效的ID")
	ErrDuplicateEntry = New(ErrCodeDuplicateEntry, "记录已存在")

	// 认证
	ErrUnauthorized  = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken  = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired  = New(ErrCodeTokenExpired, "Token已过期")
	ErrTokenRevoked  = New(ErrCodeTokenRevoked, "Token已失效，请重新登录")
	ErrIdentityError = New(ErrCodeIdentityError, "身份令牌校验失败")

	// 禁止
	ErrForbidden = New(ErrCodeForbidden, "无权限访问")

	// 资源不存在
	ErrNotFound         = New(ErrCodeNotFound, "资源不存在")
	ErrUserNotFound     = New(ErrCodeUserNotFound, "用户不存在")
	ErrEndpointNotFound = New(ErrCodeEndpointNotFound, "接口不存在")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// IsCode 判断错误链中是否包含指定错误码
func IsCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
