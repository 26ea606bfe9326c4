package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"happyshaa/internal/config"
	handlers "happyshaa/internal/handlers/shared"
	"happyshaa/internal/middleware"
	"happyshaa/internal/repositories/interfaces"
	"happyshaa/internal/repositories/mongodb"
	"happyshaa/internal/repositories/sqlstore"
	"happyshaa/internal/services"
	"happyshaa/internal/validators"
	"happyshaa/pkg/cache"
	"happyshaa/pkg/database"
	"happyshaa/pkg/logger"
	"happyshaa/pkg/maps"
	"happyshaa/pkg/metrics"
	"happyshaa/pkg/push"
	"happyshaa/pkg/scheduler"
	"happyshaa/pkg/storage"
	"happyshaa/pkg/telephony"
	"happyshaa/pkg/vision"
	"happyshaa/pkg/websocket"
	"happyshaa/routes"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

type repositories struct {
	settings interfaces.SettingsRepository
	contacts interfaces.ContactRepository
	logs     interfaces.EmergencyLogRepository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Caller:     cfg.Log.Caller,
		Colors:     cfg.Log.Colors,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
	appLog, err := logger.NewLogger(logCfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	auditCfg := *logCfg
	auditCfg.Output = cfg.Log.AuditOut
	audit, err := logger.NewAuditLogger(&auditCfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create audit logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics(cfg.App.Name)
	checks := make(map[string]routes.HealthCheck)

	// Storage backend
	repos, closeDB, err := openRepositories(ctx, cfg.Database, appLog, checks)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to open database")
	}
	defer closeDB()

	// Cache and rate limit store
	var (
		store      cache.Cache
		limitStore limiter.Store
	)
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		})
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to redis")
		}
		store = rc
		checks["redis"] = func(ctx context.Context) error {
			return rc.Client().Ping(ctx).Err()
		}
		limitStore, err = sredis.NewStoreWithOptions(rc.Client(), limiter.StoreOptions{
			Prefix:   cfg.Redis.KeyPrefix + "ratelimit",
			MaxRetry: 3,
		})
		if err != nil {
			appLog.WithError(err).Fatal("Failed to create rate limit store")
		}
	} else {
		store = cache.NewLocalCache(cfg.Redis.LocalTTL, cfg.Redis.LocalCleanup)
		appLog.Warn("Redis disabled, monitor leases are local to this instance")
	}
	defer store.Close()

	// External providers
	fileStore, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize storage provider")
	}
	phone, err := telephony.NewProvider(ctx, cfg.SMS)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize telephony provider")
	}
	classifier, err := vision.NewOpenAIClassifier(vision.OpenAIConfig{
		APIKey:      cfg.Vision.APIKey,
		BaseURL:     cfg.Vision.BaseURL,
		Model:       cfg.Vision.Model,
		MaxTokens:   cfg.Vision.MaxTokens,
		Temperature: float32(cfg.Vision.Temperature),
		ImageDetail: cfg.Vision.ImageDetail,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize vision classifier")
	}
	pushRouter := newPushRouter(ctx, cfg.Push, appLog)

	var geocoder maps.Geocoder
	if key := cfg.Maps.GoogleMaps.APIKey; key != "" {
		gm, err := maps.NewGoogleMapsProvider(key, cfg.Maps.GoogleMaps.Language)
		if err != nil {
			appLog.WithError(err).Warn("Reverse geocoding disabled")
		} else {
			geocoder = gm
		}
	}

	if err := validators.RegisterWithGin(); err != nil {
		appLog.WithError(err).Fatal("Failed to register validators")
	}

	// Services
	cacheSvc := services.NewCacheService(store, appLog)
	settingsSvc := services.NewSettingsService(repos.settings, cacheSvc, audit, appLog, cfg.Emergency)
	contactSvc := services.NewContactService(repos.contacts, appLog)
	logSvc := services.NewEmergencyLogService(repos.logs, audit, cfg.Emergency.DefaultLogsLimit)
	relaySvc := services.NewRelayService(phone, geocoder, appLog, m)
	notifierSvc := services.NewNotifierService(contactSvc, relaySvc, appLog, cfg.Emergency.NotifyLimit, cfg.Emergency.ServicesNumber)
	evidenceSvc := services.NewEvidenceService(fileStore, appLog, m)
	classifierSvc := services.NewClassifierService(classifier, m, cfg.Emergency.MaxFrameBytes, cfg.Emergency.MaxFrameSize, cfg.Emergency.JPEGQuality)

	hub := websocket.NewHub(appLog)
	go hub.Run(ctx)

	monitorSvc := services.NewMonitorService(services.MonitorDeps{
		Settings:   settingsSvc,
		Notifier:   notifierSvc,
		Evidence:   evidenceSvc,
		Logs:       logSvc,
		Cache:      cacheSvc,
		Classifier: classifier,
		Push:       pushRouter,
		Realtime:   hub,
		Logger:     appLog,
		Metrics:    m,
		Config:     cfg.Emergency,
	})
	settingsSvc.OnSave(monitorSvc.ApplySettings)

	wsHandler := websocket.NewHandler(ctx, hub, monitorSvc, websocket.Options{
		ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
		PingInterval:      cfg.WebSocket.PingInterval,
		PongTimeout:       cfg.WebSocket.PongTimeout,
		MaxMessageSize:    cfg.WebSocket.MaxMessageSize,
		EnableCompression: cfg.WebSocket.EnableCompression,
		AllowedOrigins:    cfg.WebSocket.AllowedOrigins,
	})

	// Initialize handlers
	emergencyHandler := handlers.NewEmergencyHandler(monitorSvc, settingsSvc, logSvc, appLog, cfg.Emergency.MaxFrameBytes)
	relayHandler := handlers.NewRelayHandler(classifierSvc, relaySvc, appLog)
	contactHandler := handlers.NewContactHandler(contactSvc, appLog)

	// Idle monitor reaper
	cron := scheduler.NewCron(time.UTC, appLog)
	if _, err := cron.AddFunc(cfg.Emergency.ReaperSchedule, func(ctx context.Context) {
		if n := monitorSvc.ReapIdle(ctx); n > 0 {
			appLog.Infof("Reaped %d idle monitors", n)
		}
	}); err != nil {
		appLog.WithError(err).Fatal("Invalid reaper schedule")
	}
	cron.Start()

	// Initialize Gin router
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLog.WithError(err).Warn("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLog, m))
	router.Use(middleware.RecoveryMiddleware(appLog))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	auth := middleware.AuthRequired(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, appLog)
	classifyLimit, err := middleware.RateLimit(cfg.Security.ClassifyRateLimit, limitStore, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Invalid classify rate limit")
	}

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupEmergencyRoutes(v1, emergencyHandler, relayHandler, auth, classifyLimit)
		routes.SetupContactRoutes(v1, contactHandler, auth)
		routes.SetupWebSocketRoutes(v1, wsHandler, auth)
	}

	var metricsHandler http.Handler
	if cfg.App.MetricsEnabled {
		metricsHandler = m.Handler()
	}
	uploadsDir := ""
	if cfg.Storage.Provider == "local" || cfg.Storage.Provider == "" {
		uploadsDir = cfg.Storage.Local.BasePath
	}
	routes.SetupSystemRoutes(router, cfg.App.Version, checks, metricsHandler, uploadsDir)

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("HTTP shutdown failed")
	}
	cron.Stop()
	monitorSvc.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg *config.DatabaseConfig, appLog *logger.Logger, checks map[string]routes.HealthCheck) (*repositories, func(), error) {
	if cfg.Driver == config.DriverMongo {
		db, err := database.NewMongoDB(ctx, &database.MongoConfig{
			URI:            cfg.URI,
			Database:       cfg.Database,
			Username:       cfg.Username,
			Password:       cfg.Password,
			AuthSource:     cfg.AuthSource,
			MaxPoolSize:    cfg.MaxPoolSize,
			MinPoolSize:    cfg.MinPoolSize,
			ConnectTimeout: cfg.ConnectTimeout,
			SocketTimeout:  cfg.SocketTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := database.NewMigrator(db.Database, appLog).Up(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		checks["database"] = db.Ping
		return &repositories{
			settings: mongodb.NewSettingsRepository(db.Database),
			contacts: mongodb.NewContactRepository(db.Database),
			logs:     mongodb.NewEmergencyLogRepository(db.Database),
		}, func() { _ = db.Close() }, nil
	}

	db, err := database.NewSQL(&database.SQLConfig{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		LogQueries:      cfg.LogQueries,
	})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	checks["database"] = sqlDB.PingContext
	return &repositories{
		settings: sqlstore.NewSettingsRepository(db),
		contacts: sqlstore.NewContactRepository(db),
		logs:     sqlstore.NewEmergencyLogRepository(db),
	}, func() { _ = sqlDB.Close() }, nil
}

// newPushRouter registers a provider per platform that has credentials.
// An empty router leaves alerts on the websocket channel only.
func newPushRouter(ctx context.Context, cfg *config.PushConfig, appLog *logger.Logger) *push.Router {
	router := push.NewRouter()
	router.SetDefaults(push.Defaults{
		Sound:     cfg.Alert.Sound,
		Category:  cfg.Alert.Category,
		ChannelID: cfg.Alert.ChannelID,
	})

	if cfg.FCM.ProjectID != "" {
		fcm, err := push.NewFCMProvider(ctx, cfg.FCM.ProjectID, cfg.FCM.Credentials)
		if err != nil {
			appLog.WithError(err).Warn("FCM push disabled")
		} else {
			router.Register(push.PlatformAndroid, fcm)
		}
	}

	if cfg.APNS.KeyFile != "" {
		apns, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			appLog.WithError(err).Warn("APNs push disabled")
		} else {
			router.Register(push.PlatformIOS, apns)
		}
	}

	return router
}
