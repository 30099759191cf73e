package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр пути является валидным UUID.
// Использование: router.GET("/orders/:id", UUIDValidator("id"), handler.GetOrder)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.Fail(string(apperror.ErrCodeValidation), "параметр "+paramName+" обязателен"))
			return
		}
		if _, err := uuid.Parse(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.Fail(string(apperror.ErrCodeValidation), "параметр "+paramName+" должен быть валидным UUID"))
			return
		}
		c.Next()
	}
}
