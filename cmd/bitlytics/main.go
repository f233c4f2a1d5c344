package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Totarae/Bitlytics/internal/auth"
	"github.com/Totarae/Bitlytics/internal/cache"
	"github.com/Totarae/Bitlytics/internal/clicks"
	"github.com/Totarae/Bitlytics/internal/config"
	"github.com/Totarae/Bitlytics/internal/database"
	"github.com/Totarae/Bitlytics/internal/handlers"
	"github.com/Totarae/Bitlytics/internal/repositories"
	"github.com/Totarae/Bitlytics/internal/router"
	"github.com/Totarae/Bitlytics/internal/service"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Инициализация конфигурации
	cfg := config.NewConfig()

	db, err := database.NewDB(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("Ошибка подключения к БД", zap.Error(err))
	}
	defer db.Close()

	if cfg.PgMigrationsPath != "" {
		if err := database.RunMigrations(cfg.DatabaseDSN, cfg.PgMigrationsPath, logger); err != nil {
			logger.Fatal("Ошибка применения миграций", zap.Error(err))
		}
	}

	repo := repositories.NewLinkRepository(db)

	// Клиент Redis — общий ресурс процесса
	redisClient := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()
	linkCache := cache.NewRedisCache(redisClient, logger)

	tracker := clicks.NewTracker(cfg.ClickQueueSize, cfg.ClickWorkers, logger)
	recorder := clicks.NewRecorder(repo, linkCache, logger)

	resolver := service.NewResolver(repo, linkCache, recorder, tracker, logger, cfg.CacheTTL())
	creator := service.NewCreator(repo, logger, cfg.IsProduction())

	handler := handlers.NewHandler(resolver, creator, repo, linkCache,
		auth.New(cfg.AuthSecret), logger, cfg.BaseURL, cfg.TrustedSubnet)

	r := router.NewRouter(handler, logger)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Сервер запущен", zap.String("address", cfg.ServerAddress))
		var err error
		if cfg.EnableHTTPS {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка при запуске сервера", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка останова сервера", zap.Error(err))
	}

	// Дожидаемся уже принятых задач трекинга
	tracker.Close()
	logger.Info("Сервер остановлен")
}
