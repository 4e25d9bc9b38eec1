package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/casa-guarda/service-listing/internal/application"
	"github.com/casa-guarda/service-listing/internal/config"
	"github.com/casa-guarda/service-listing/internal/domain/house"
	"github.com/casa-guarda/service-listing/internal/domain/room"
	listingEvents "github.com/casa-guarda/service-listing/internal/events"
	"github.com/casa-guarda/service-listing/internal/handler"
	"github.com/casa-guarda/service-listing/internal/platform/auth"
	"github.com/casa-guarda/service-listing/internal/platform/cache"
	"github.com/casa-guarda/service-listing/internal/platform/database"
	"github.com/casa-guarda/service-listing/internal/platform/health"
	"github.com/casa-guarda/service-listing/internal/platform/kafka"
	"github.com/casa-guarda/service-listing/internal/platform/logger"
	"github.com/casa-guarda/service-listing/internal/platform/middleware"
	"github.com/casa-guarda/service-listing/internal/repository"
	"github.com/casa-guarda/service-listing/internal/storage"
)

const serviceName = "service-listing"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.IsDevelopment() {
		if err := db.AutoMigrate(&repository.HouseModel{}, &repository.RoomModel{}, &repository.ProfileModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL, cfg.JWTConfig.RefreshTTL)

	// Initialize Kafka producer; events are skipped when no broker is configured
	var publisher application.EventPublisher
	if cfg.KafkaConfig.Enabled() {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("no kafka brokers configured, listing events disabled")
	}

	// Initialize object storage
	objects, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}

	// Initialize read cache
	listingCache, err := cache.New(ctx, cache.Config{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
		TTL:      cfg.RedisConfig.TTL,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = listingCache.Close() }()

	// Initialize repositories
	houseRepo := repository.NewGormHouseRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	profileRepo := repository.NewGormProfileRepository(db)

	// Initialize image workflows and the session registry
	houseWorkflow := application.NewImageWorkflow(house.NewKind(cfg.StorageConfig.HouseBucket), houseRepo, objects, publisher, log)
	roomWorkflow := application.NewImageWorkflow(room.NewKind(cfg.StorageConfig.RoomBucket), roomRepo, objects, publisher, log)

	sessions := application.NewSessionRegistry(cfg.SessionIdleTTL, log)
	go sessions.Run(ctx, cfg.SessionSweep)

	// Initialize application services
	houseService := application.NewHouseService(houseRepo, roomRepo, houseWorkflow, sessions, listingCache, cfg.PlaceholderImage, log)
	roomService := application.NewRoomService(roomRepo, houseRepo, roomWorkflow, sessions, listingCache, cfg.PlaceholderImage, log)
	imageSessionService := application.NewImageSessionService(sessions, log)
	profileService := application.NewProfileService(profileRepo, log)
	authService := application.NewAuthService(profileRepo, jwtManager, log)
	registrationService := application.NewRegistrationService(profileService, objects, cfg.StorageConfig.ProfileBucket, log)
	statsService := application.NewStatsService(profileRepo, houseRepo, roomRepo)

	// Initialize and start the orphan cleanup consumer in a goroutine
	if cfg.KafkaConfig.Enabled() {
		groupID := cfg.KafkaConfig.GroupPrefix + "listing-orphan-cleanup"
		orphanConsumer := listingEvents.NewOrphanCleanupConsumer(cfg.KafkaConfig.Brokers, groupID, objects, log)
		defer func() { _ = orphanConsumer.Close() }()

		go func() {
			log.Info("starting orphan cleanup consumer")
			if err := orphanConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("orphan cleanup consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	houseHandler := handler.NewHouseHandler(houseService)
	roomHandler := handler.NewRoomHandler(roomService)
	imageSessionHandler := handler.NewImageSessionHandler(imageSessionService, cfg.StorageConfig.MaxUploadMB<<20)
	userHandler := handler.NewUserHandler(authService, profileService, registrationService, cfg.StorageConfig.MaxUploadMB<<20)
	adminHandler := handler.NewAdminHandler(statsService)

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.StorageConfig.MaxUploadMB << 20

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Serve locally stored images
	if disk, ok := objects.(*storage.DiskStore); ok {
		if u, err := url.Parse(cfg.StorageConfig.DiskBaseURL); err == nil && u.Path != "" {
			router.Static(u.Path, disk.Root())
		}
	}

	// Register API routes behind the per-IP rate limiter
	api := router.Group("", middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimitPerMin)))
	houseHandler.RegisterRoutes(api, jwtManager)
	roomHandler.RegisterRoutes(api, jwtManager)
	imageSessionHandler.RegisterRoutes(api, jwtManager)
	userHandler.RegisterRoutes(api, jwtManager)
	adminHandler.RegisterRoutes(api, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer and sweeper context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

// newObjectStore builds the configured object store and makes sure the
// listing buckets exist.
func newObjectStore(ctx context.Context, cfg *config.ServiceConfig, log *zap.Logger) (storage.ObjectStore, error) {
	sc := cfg.StorageConfig
	if sc.Driver == "disk" {
		store, err := storage.NewDiskStore(sc.DiskRoot, sc.DiskBaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("using local disk object storage", zap.String("root", sc.DiskRoot))
		return store, nil
	}

	store, err := storage.NewMinioStore(sc.Minio, log)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBuckets(ctx, sc.HouseBucket, sc.RoomBucket, sc.ProfileBucket); err != nil {
		return nil, err
	}
	log.Info("using S3-compatible object storage", zap.String("endpoint", sc.Minio.Endpoint))
	return store, nil
}
