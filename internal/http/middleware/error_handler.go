package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/logger"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
)

// ErrorHandler превращает ошибки, сложенные в gin.Context, в единый
// конверт ответа. Ошибки, не являющиеся AppError, маскируются как
// внутренние: их текст наружу не уходит.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Log.WithFields(logrus.Fields{
					"error":  appErr.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("ошибка запроса")
			}
			c.JSON(appErr.HTTPStatus, dto.Fail(string(appErr.Code), appErr.Message))
			return
		}

		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("необработанная ошибка запроса")

		c.JSON(http.StatusInternalServerError,
			dto.Fail(string(apperror.ErrCodeInternal), "внутренняя ошибка сервера"))
	}
}
