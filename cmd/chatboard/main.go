package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatboard/backend/internal/api/handler"
	"chatboard/backend/internal/cache"
	"chatboard/backend/internal/config"
	"chatboard/backend/internal/feed"
	"chatboard/backend/internal/models"
	"chatboard/backend/internal/presence"
	"chatboard/backend/internal/queue"
	"chatboard/backend/internal/storage"
	"chatboard/backend/internal/telegram"
	"chatboard/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDatabase(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.ChatMessage{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database connection established, migrations complete")
	return db
}

// setupCache builds the ephemeral store wrapper. Unlike the database this
// is not fatal: the app runs with presence and caching degraded to empty.
func setupCache(cfg config.Config) *cache.Service {
	if cfg.RedisAddr == "" {
		return cache.NewDisabled()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	return cache.NewService(rdb)
}

func startConsumers(ctx context.Context, dispatcher *queue.Dispatcher, store *storage.Service, cfg config.Config) {
	var push worker.PushSender
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("Warning: Telegram bot unavailable (%v). Push delivery disabled.", err)
		} else {
			push = bot
		}
	}

	workers := worker.NewService(store, dispatcher, push)

	dispatcher.RegisterConsumer(ctx, queue.QueueEmail, workers.HandleEmail)
	dispatcher.RegisterConsumer(ctx, queue.QueuePush, workers.HandlePush)
	dispatcher.RegisterConsumer(ctx, queue.QueueMessageProcessing, workers.HandleMessageProcessing)
	dispatcher.RegisterConsumer(ctx, queue.QueueUserActivity, workers.HandleActivity)
}

func main() {
	log.Println("Starting ChatBoard Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL is the system of record and required; Redis and RabbitMQ
	// are probed once and the app degrades without them.
	db := setupDatabase(cfg.DatabaseDSN)
	store := storage.NewStorageService(db)
	ephemeral := setupCache(cfg)
	presenceMgr := presence.NewManager(ephemeral)

	var broker queue.Broker
	if cfg.AMQPURL != "" {
		broker = queue.NewAMQPBroker(cfg.AMQPURL)
	}
	dispatcher := queue.NewDispatcher(broker)

	startConsumers(ctx, dispatcher, store, cfg)

	hub := feed.NewHub(ephemeral, presenceMgr)
	go hub.Run(ctx)

	h := handler.NewHandler(presenceMgr, store, dispatcher, hub, cfg.JWTSecret)

	r := gin.Default()

	auth := r.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.RequireAuth(), h.Logout)

	chat := r.Group("/chat", h.RequireAuth())
	chat.GET("/messages", h.GetMessages)
	chat.POST("/messages", h.SendMessage)
	chat.GET("/online", h.OnlineUsers)
	chat.POST("/typing", h.SetTyping)
	chat.GET("/typing", h.GetTyping)

	users := r.Group("/users", h.RequireAuth())
	users.GET("", h.ListUsers)
	users.GET("/count", h.CountUsers)
	users.GET("/:id", h.FindUser)
	users.PUT("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)

	r.GET("/profile", h.RequireAuth(), h.Profile)
	r.GET("/ws", h.ServeWebSocket)

	server := &http.Server{
		Addr:           ":" + cfg.AppPort,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	log.Printf("ChatBoard listening on :%s", cfg.AppPort)

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}

	log.Println("ChatBoard stopped cleanly")
}
