package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/http/middleware"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
)

var (
	// ErrUserNotFound is returned when user is not found in context.
	ErrUserNotFound = errors.New("пользователь не найден в контексте")

	// ErrInvalidUUID is returned when UUID parsing fails.
	ErrInvalidUUID = errors.New("неверный формат UUID")
)

// CurrentUserID extracts the authenticated user ID from Gin context.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// ParseUUIDParam parses a UUID from a URL parameter.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// ParsePagination reads limit/offset query parameters with defaults.
func ParsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// RespondOK sends a success envelope with the given status code.
func RespondOK(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, dto.OK(data))
}

// RespondError hands the error to the error handler middleware.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// RespondUnauthorized sends a 401 envelope immediately.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	c.JSON(http.StatusUnauthorized, dto.Fail(string(apperror.ErrCodeUnauthorized), message))
}

// RespondBadRequest sends a 400 envelope immediately.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	c.JSON(http.StatusBadRequest, dto.Fail(string(apperror.ErrCodeValidation), message))
}
