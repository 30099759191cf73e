package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/retasker/retasker-backend/internal/config"
	"github.com/retasker/retasker-backend/internal/db"
	httpHandlers "github.com/retasker/retasker-backend/internal/http/handlers"
	httpRouter "github.com/retasker/retasker-backend/internal/http/router"
	"github.com/retasker/retasker-backend/internal/logger"
	"github.com/retasker/retasker-backend/internal/metrics"
	"github.com/retasker/retasker-backend/internal/repository"
	"github.com/retasker/retasker-backend/internal/service"
	"github.com/retasker/retasker-backend/internal/storage"
	"github.com/retasker/retasker-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.Env)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	avatarStorage, err := storage.NewAvatarStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	dealMetrics := metrics.NewDealMetrics()

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	responseRepo := repository.NewResponseRepository(dbConn)
	dealRepo := repository.NewDealRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	complaintRepo := repository.NewComplaintRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager, cfg.LoginTokenTTL)
	userService := service.NewUserService(userRepo, avatarStorage)
	orderService := service.NewOrderService(orderRepo, responseRepo)
	dealService := service.NewDealService(dealRepo, orderRepo, responseRepo, messageRepo)
	complaintService := service.NewComplaintService(complaintRepo, dealRepo)

	dealService.SetMetrics(dealMetrics)
	complaintService.SetMetrics(dealMetrics)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()
	dealService.SetNotifier(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService, cfg.LoginTokenTTL)
	profileHandler := httpHandlers.NewProfileHandler(userService, cfg.MaxUploadSizeMB)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	dealHandler := httpHandlers.NewDealHandler(dealService, complaintService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, authHandler, profileHandler, orderHandler, dealHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
