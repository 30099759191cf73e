package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retasker/retasker-backend/internal/config"
	"github.com/retasker/retasker-backend/internal/http/handlers"
	"github.com/retasker/retasker-backend/internal/http/middleware"
	"github.com/retasker/retasker-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	orderHandler *handlers.OrderHandler,
	dealHandler *handlers.DealHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	// Бот ходит под общим секретом, не под пользовательским JWT.
	botGroup := api.Group("/auth")
	botGroup.Use(middleware.BotAuthMiddleware(cfg.BotAPIToken))
	{
		botGroup.POST("/telegram", authHandler.TelegramAuth)
		botGroup.POST("/login-token", authHandler.IssueLoginToken)
	}

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/exchange", authHandler.ExchangeLoginToken)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Публичные маршруты.
	api.GET("/orders", orderHandler.ListOrders)
	api.GET("/users/:id", middleware.UUIDValidator("id"), profileHandler.GetUserProfile)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.GetMe)
		protected.PUT("/profile", profileHandler.UpdateMe)
		protected.POST("/profile/avatar", profileHandler.UploadAvatar)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders/my", orderHandler.ListMyOrders)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.GetOrder)
		protected.PUT("/orders/:id", middleware.UUIDValidator("id"), orderHandler.UpdateOrder)
		protected.DELETE("/orders/:id", middleware.UUIDValidator("id"), orderHandler.DeleteOrder)

		protected.POST("/orders/:id/responses", middleware.UUIDValidator("id"), orderHandler.CreateResponse)
		protected.GET("/orders/:id/responses", middleware.UUIDValidator("id"), orderHandler.ListResponses)
		protected.GET("/orders/:id/responses/my", middleware.UUIDValidator("id"), orderHandler.GetMyResponse)
		protected.POST("/orders/:id/accept", middleware.UUIDValidator("id"), dealHandler.AcceptResponse)

		protected.GET("/deals", dealHandler.ListDeals)
		protected.GET("/deals/:id", middleware.UUIDValidator("id"), dealHandler.GetDeal)
		protected.POST("/deals/:id/deliver", middleware.UUIDValidator("id"), dealHandler.Deliver)
		protected.POST("/deals/:id/confirm", middleware.UUIDValidator("id"), dealHandler.Confirm)
		protected.POST("/deals/:id/cancel", middleware.UUIDValidator("id"), dealHandler.Cancel)

		protected.POST("/deals/:id/messages", middleware.UUIDValidator("id"), dealHandler.SendMessage)
		protected.GET("/deals/:id/messages", middleware.UUIDValidator("id"), dealHandler.ListMessages)

		protected.POST("/deals/:id/complaints", middleware.UUIDValidator("id"), dealHandler.FileComplaint)
		protected.GET("/complaints/my", dealHandler.ListMyComplaints)
	}

	return r
}
