package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/http/handlers/common"
	"github.com/retasker/retasker-backend/internal/service"
)

// AuthHandler обслуживает аутентификацию: вход через бота и обмен
// одноразового токена на JWT для веб-клиента.
type AuthHandler struct {
	auth          *service.AuthService
	loginTokenTTL time.Duration
}

// NewAuthHandler создаёт новый хэндлер.
func NewAuthHandler(auth *service.AuthService, loginTokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, loginTokenTTL: loginTokenTTL}
}

// TelegramAuth обрабатывает POST /api/auth/telegram. Вызывается ботом
// под BotAuthMiddleware при каждом /start.
func (h *AuthHandler) TelegramAuth(c *gin.Context) {
	var req dto.TelegramAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	res, err := h.auth.AuthenticateTelegram(c.Request.Context(), service.TelegramInput{
		TelegramID: req.TelegramID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Username:   req.Username,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.NewAuthResponse(res))
}

// IssueLoginToken обрабатывает POST /api/auth/login-token. Бот выдаёт
// пользователю одноразовую ссылку для входа в веб.
func (h *AuthHandler) IssueLoginToken(c *gin.Context) {
	var req dto.LoginTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	token, err := h.auth.IssueLoginToken(c.Request.Context(), req.TelegramID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.LoginTokenResponse{
		Token:     token,
		ExpiresIn: int64(h.loginTokenTTL.Seconds()),
	})
}

// ExchangeLoginToken обрабатывает POST /api/auth/exchange.
// Веб-клиент меняет одноразовый токен на пару JWT.
func (h *AuthHandler) ExchangeLoginToken(c *gin.Context) {
	var req dto.ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	res, err := h.auth.ExchangeLoginToken(c.Request.Context(), req.TelegramID, req.Token)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.NewAuthResponse(res))
}

// Refresh обрабатывает POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	res, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.TokenPairResponse{
		AccessToken:  res.TokenPair.AccessToken,
		RefreshToken: res.TokenPair.RefreshToken,
	})
}
