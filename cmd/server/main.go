package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gotogether/internal/config"
	handlers "gotogether/internal/handlers/shared"
	"gotogether/internal/middleware"
	"gotogether/internal/repositories/mongodb"
	"gotogether/internal/services"
	"gotogether/pkg/cache"
	"gotogether/pkg/database"
	"gotogether/pkg/logger"
	"gotogether/pkg/maps"
	"gotogether/pkg/push"
	"gotogether/pkg/sms"
	ws "gotogether/pkg/websocket"
	"gotogether/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
		Colors: config.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := database.NewMigrator(mongoDB.Database).Up(); err != nil {
		appLogger.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}

	smsProvider := buildSMSProvider(cfg, appLogger)
	pushProvider := buildPushProvider(cfg, appLogger)
	mapsProvider := buildMapsProvider(cfg, appLogger)

	ws.ConfigureUpgrader(cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, cfg.WebSocket.EnableCompression)
	hub := ws.NewHub()
	go hub.Run()

	// Repositories
	cacheService := services.NewCacheService(redisCache)
	userRepo := mongodb.NewUserRepository(mongoDB.Database, cacheService)
	rideRepo := mongodb.NewRideRepository(mongoDB.Database)
	scheduledRepo := mongodb.NewScheduledRideRepository(mongoDB.Database)
	chatRepo := mongodb.NewChatRepository(mongoDB.Database)
	notificationRepo := mongodb.NewNotificationRepository(mongoDB.Database)
	ratingRepo := mongodb.NewRatingRepository(mongoDB.Database)
	locationRepo := mongodb.NewLocationRepository(mongoDB.Database)

	// Services
	smsService := services.NewSMSService(smsProvider, cfg.SMS.DefaultFrom, appLogger)
	pushService := services.NewPushService(pushProvider, appLogger)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, pushService, hub, appLogger)
	chatService := services.NewChatService(chatRepo, hub, appLogger)
	matchingService := services.NewMatchingService(locationRepo, userRepo, rideRepo, notificationService, smsService, appLogger)
	rideService := services.NewRideService(rideRepo, userRepo, chatService, matchingService, notificationService, smsService, appLogger)
	scheduledService := services.NewScheduledRideService(scheduledRepo, rideRepo, userRepo, chatService, notificationService, appLogger)
	ratingService := services.NewRatingService(ratingRepo, rideRepo, userRepo, appLogger)
	userService := services.NewUserService(userRepo, locationRepo, appLogger)
	authService := services.NewAuthService(userRepo, cacheService, smsService, cfg.Security.JWTSecret, appLogger)
	etaService := services.NewETAService(mapsProvider, cfg.Maps.FallbackKMH, appLogger)
	fareService := services.NewFareService()

	realtimeService := services.NewRealtimeService(hub, chatService, rideRepo, appLogger)
	wsHandler := ws.NewHandler(hub, realtimeService)

	pickupScheduler := services.NewPickupScheduler(rideRepo, chatService, notificationService, cfg.Scheduler, appLogger)
	reminderScheduler := services.NewReminderScheduler(scheduledRepo, userRepo, notificationService, smsService, cfg.Scheduler, appLogger)
	pickupScheduler.Start()
	reminderScheduler.Start()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.Security.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			appLogger.Fatalf("Failed to set trusted proxies: %v", err)
		}
	}

	authRequired := middleware.AuthRequired(cfg.Security.JWTSecret, userRepo)
	routes.Setup(engine, &routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		User:          handlers.NewUserHandler(userService),
		Ride:          handlers.NewRideHandler(rideService, userService, etaService, fareService),
		ScheduledRide: handlers.NewScheduledRideHandler(scheduledService),
		Chat:          handlers.NewChatHandler(chatService),
		Rating:        handlers.NewRatingHandler(ratingService),
		Notification:  handlers.NewNotificationHandler(notificationService),
		WebSocket:     wsHandler,
	}, authRequired, cfg.Security.CORSAllowedOrigins, appLogger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: engine,
	}

	go func() {
		appLogger.Infof("Starting %s on port %d", cfg.App.Name, cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down")

	pickupScheduler.Stop()
	reminderScheduler.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
	if err := mongoDB.Close(); err != nil {
		appLogger.Errorf("Failed to close MongoDB: %v", err)
	}
	if err := redisCache.Close(); err != nil {
		appLogger.Errorf("Failed to close Redis: %v", err)
	}
	appLogger.Info("Shutdown complete")
}

func buildSMSProvider(cfg *config.Config, appLogger *logger.Logger) sms.SMSProvider {
	switch cfg.SMS.Provider {
	case "aws":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			appLogger.Fatalf("Failed to initialize SNS: %v", err)
		}
		return provider
	default:
		return sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
	}
}

func buildPushProvider(cfg *config.Config, appLogger *logger.Logger) push.PushProvider {
	if cfg.Push.FCM.Credentials == "" {
		appLogger.Warn("FCM credentials missing, push notifications disabled")
		return nil
	}
	provider, err := push.NewFCMProvider(cfg.Push.FCM.Credentials)
	if err != nil {
		appLogger.Fatalf("Failed to initialize FCM: %v", err)
	}
	return provider
}

func buildMapsProvider(cfg *config.Config, appLogger *logger.Logger) maps.MapsProvider {
	if cfg.Maps.APIKey == "" {
		appLogger.Warn("Maps API key missing, ETA falls back to straight-line estimates")
		return nil
	}
	provider, err := maps.NewGoogleMapsProvider(cfg.Maps.APIKey)
	if err != nil {
		appLogger.Fatalf("Failed to initialize Maps client: %v", err)
	}
	return provider
}
