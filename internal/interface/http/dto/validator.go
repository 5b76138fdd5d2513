package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/xiebiao/library/internal/domain/book"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// RegisterValidators 在gin的校验引擎上注册自定义规则
//   - isbn13: 合法的ISBN-13（允许连字符和空格，校验位必须正确）
//   - genre:  属于固定的图书类型列表
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin校验引擎不是validator/v10")
	}
	if err := v.RegisterValidation("isbn13", validateISBN13); err != nil {
		return err
	}
	return v.RegisterValidation("genre", validateGenre)
}

func validateISBN13(fl validator.FieldLevel) bool {
	return book.IsValidISBN13(book.NormalizeISBN(fl.Field().String()))
}

func validateGenre(fl validator.FieldLevel) bool {
	return book.IsValidGenre(fl.Field().String())
}

// BindError 参数绑定/校验错误转为400业务错误，提示信息逐字段说明
func BindError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.ErrBindError.WithMessage("参数格式错误: " + err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperrors.ErrInvalidParams.WithMessage(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s不能为空", field)
	case "email":
		return fmt.Sprintf("%s不是合法的邮箱", field)
	case "isbn13":
		return fmt.Sprintf("%s不是合法的ISBN-13", field)
	case "genre":
		return fmt.Sprintf("%s不是支持的图书类型: %v", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s只能是[%s]之一", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s长度不能小于%s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s长度不能大于%s", field, fe.Param())
	default:
		return fmt.Sprintf("%s校验失败(%s)", field, fe.Tag())
	}
}
