package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parley-chat/parley/internal/cache"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/domain"
	"github.com/parley-chat/parley/internal/handler"
	"github.com/parley-chat/parley/internal/hub"
	"github.com/parley-chat/parley/internal/pubsub"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/database"
	"github.com/parley-chat/parley/pkg/jwt"
	"github.com/parley-chat/parley/pkg/log"
	"github.com/parley-chat/parley/pkg/middleware"
	"github.com/parley-chat/parley/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()

	// Connect to database using GORM
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.ChatModel{},
		&domain.ChatMemberModel{},
		&domain.MessageModel{},
	); err != nil {
		l.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// Chat list cache (optional)
	var listCache cache.ChatListCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisChatListCache(cfg.Redis)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		listCache = redisCache
		l.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
	}

	// Event bus publisher
	publisher, err := pubsub.NewPublisher(cfg.PubSub)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create publisher")
	}
	defer publisher.Close()
	l.Info().Str("driver", cfg.PubSub.Driver).Msg("event bus ready")

	// Media storage
	media, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Token manager
	tokens, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, cfg.JWT.Issuer)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create token manager")
	}

	// Relay hub
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	chatRepo := repository.NewGormChatRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Services
	userService := service.NewUserService(userRepo, tokens, publisher, wsHub)
	chatService := service.NewChatService(chatRepo, userRepo, messageRepo, listCache, cfg.Redis.CacheTTL)
	messageService := service.NewMessageService(messageRepo, chatRepo, userRepo, publisher, listCache)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(tokens)
	httpHandler := handler.NewHandler(userService, chatService, messageService, media, authMiddleware)
	wsHandler := handler.NewWSHandler(wsHub, cfg.WebSocket)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(l))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("server stopped")
}
