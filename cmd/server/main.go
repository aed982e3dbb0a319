package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/korsetof/chatmod/internal/adapters/kafka"
	"github.com/korsetof/chatmod/internal/adapters/storage"
	"github.com/korsetof/chatmod/internal/api/handlers"
	"github.com/korsetof/chatmod/internal/api/routes"
	"github.com/korsetof/chatmod/internal/config"
	"github.com/korsetof/chatmod/internal/database"
	"github.com/korsetof/chatmod/internal/relay"
	"github.com/korsetof/chatmod/internal/repositories/postgres"
	"github.com/korsetof/chatmod/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.NewPostgresDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	rdb, err := database.NewRedisClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	userRepo := postgres.NewUserRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	likeRepo := postgres.NewLikeRepository(db)

	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)
	presenceService := services.NewPresenceService(rdb)
	matchService := services.NewMatchService(likeRepo)

	var events relay.EventPublisher
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewMessageEventProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return err
		}
		defer producer.Close()
		events = producer
	} else {
		logger.Info("kafka not configured, message events disabled")
	}

	hub := relay.NewHub(messageRepo, presenceService, events, logger)
	go hub.Run()
	defer hub.Stop()

	var mediaHandler *handlers.MediaHandler
	if cfg.Minio.Enabled() {
		media, err := storage.NewMediaStorage(context.Background(),
			cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey,
			cfg.Minio.Bucket, cfg.Minio.UseSSL, logger)
		if err != nil {
			return err
		}
		mediaHandler = handlers.NewMediaHandler(media, logger)
	} else {
		logger.Info("object storage not configured, media uploads disabled")
	}

	var allowedOrigins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		allowedOrigins = append(allowedOrigins, raw)
	}

	router := &routes.Router{
		Auth:           handlers.NewAuthHandler(userService, logger),
		Users:          handlers.NewUserHandler(userService, presenceService, logger),
		Rooms:          handlers.NewRoomHandler(roomRepo, logger),
		Messages:       handlers.NewMessageHandler(messageRepo, hub, logger),
		Likes:          handlers.NewLikeHandler(matchService, logger),
		Media:          mediaHandler,
		Admin:          handlers.NewAdminHandler(userService, logger),
		WebSocket:      handlers.NewWebSocketHandler(hub),
		Hub:            hub,
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: allowedOrigins,
		RateLimiter:    presenceService,
		Logger:         logger,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Setup(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
