package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/http/handlers/common"
	"github.com/retasker/retasker-backend/internal/service"
)

// ProfileHandler обслуживает профили пользователей.
type ProfileHandler struct {
	users          *service.UserService
	maxUploadBytes int64
}

// NewProfileHandler создаёт новый хэндлер.
func NewProfileHandler(users *service.UserService, maxUploadMB int64) *ProfileHandler {
	return &ProfileHandler{users: users, maxUploadBytes: maxUploadMB * 1024 * 1024}
}

// GetMe обрабатывает GET /api/profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, user)
}

// UpdateMe обрабатывает PUT /api/profile.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, user)
}

// UploadAvatar обрабатывает POST /api/profile/avatar (multipart, поле "avatar").
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		common.RespondBadRequest(c, "файл avatar обязателен")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		common.RespondBadRequest(c, "файл превышает допустимый размер")
		return
	}

	url, err := h.users.UploadAvatar(c.Request.Context(), userID, data)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.AvatarResponse{AvatarURL: url})
}

// GetUserProfile обрабатывает GET /api/users/:id, публичная проекция.
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.GetPublicProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, user)
}
