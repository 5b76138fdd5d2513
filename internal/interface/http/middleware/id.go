package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// ValidateID 校验路径参数:id是UUID，不合法直接返回400
func ValidateID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param("id")); err != nil {
			response.Error(c, apperrors.ErrInvalidID)
			return
		}
		c.Next()
	}
}
