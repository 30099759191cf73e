package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/service"
)

// ContextUserIDKey содержит идентификатор пользователя в gin.Context.
// Роли в токене нет: роль определяется полями конкретной сделки.
const ContextUserIDKey = "userID"

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, apperror.ErrUnauthorized)
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			abortUnauthorized(c, apperror.ErrInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err *apperror.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, dto.Fail(string(err.Code), err.Message))
}

// BotAuthMiddleware проверяет общий секрет бота. Эндпойнты под ним
// вызываются только процессом бота, не конечными пользователями.
func BotAuthMiddleware(botToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Bot-Token") != botToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.Fail(string(apperror.ErrCodeUnauthorized), "невалидный токен бота"))
			return
		}
		c.Next()
	}
}
