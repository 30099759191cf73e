package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/service"
	"github.com/retasker/retasker-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
// Браузерный WebSocket API не умеет заголовки, поэтому access токен
// передаётся query-параметром.
type WSHandler struct {
	hub            *ws.Hub
	tokenManager   *service.TokenManager
	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager, allowedOrigins []string) *WSHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	h := &WSHandler{
		hub:            hub,
		tokenManager:   tokens,
		allowedOrigins: origins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := h.allowedOrigins[origin]
			return ok
		},
	}
	return h
}

// Handle обслуживает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusUnauthorized,
			dto.Fail(string(apperror.ErrCodeUnauthorized), "access токен обязателен"))
		return
	}

	userID, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized,
			dto.Fail(string(apperror.ErrCodeUnauthorized), "токен невалиден"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(conn, h.hub, userID)
	h.hub.Register(client)
	client.Run(c.Request.Context())
}
