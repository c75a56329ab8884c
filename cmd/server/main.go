package main

import (
	"alcyxob/growrep/internal/api"
	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/config"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/identity"
	"alcyxob/growrep/internal/logging"
	"alcyxob/growrep/internal/metrics"
	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/repository"
	"alcyxob/growrep/internal/repository/memory"
	"alcyxob/growrep/internal/repository/mongo"
	"alcyxob/growrep/internal/service"
	"alcyxob/growrep/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

// stores groups the repositories of the selected database driver.
type stores struct {
	records     repository.RecordRepository
	users       repository.UserRepository
	settings    repository.SettingsRepository
	credentials repository.CredentialRepository
	exports     repository.ExportRepository
	close       func()
}

// @title growrep API
// @version 1.0
// @description Workout leaderboard: exercise records, rankings, scores and progress in two independent modes.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.ToStdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Infoln("starting growrep server")

	if cfg.JWT.Secret == "" {
		log.Fatalln("jwt.secret (JWT_SECRET) must be set")
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, registry)

	// --- Repositories ---
	st, err := openStores(cfg.Database)
	if err != nil {
		log.Fatalf("could not open %s store: %v", cfg.Database.Driver, err)
	}
	defer st.close()

	// --- Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Warnln("s3.bucket_name is empty, ranking exports are disabled")
	}

	// --- Services ---
	leaderboardCache := cache.New(cfg.Cache.TTL, cache.WithMetrics(metricsManager))

	initial, ok := domain.ParseMode(cfg.Mode.Default)
	if !ok {
		log.Warnf("unknown mode.default %q, starting in %s", cfg.Mode.Default, domain.ModePrototype)
		initial = domain.ModePrototype
	}
	modeSwitch := mode.NewSwitch(initial, leaderboardCache, metricsManager)

	leaderboardService := service.NewLeaderboardService(st.records, st.users, st.settings, leaderboardCache, metricsManager)
	modeSwitch.SetRefresher(leaderboardService)
	postService := service.NewPostService(st.records, leaderboardCache, leaderboardService, metricsManager)
	profileService := service.NewProfileService(st.users, leaderboardCache)
	settingsService := service.NewSettingsService(st.settings, leaderboardCache)
	exportService := service.NewExportService(fileStorage, st.exports, leaderboardService, cfg.S3.URLExpiry)

	provider := identity.NewLocalProvider(st.credentials, identity.Options{
		JWTSecret:         cfg.JWT.Secret,
		TokenTTL:          cfg.JWT.Expiration,
		ResetTTL:          cfg.Identity.ResetTokenTTL,
		MaxFailedAttempts: cfg.Identity.MaxFailedAttempts,
		LockoutWindow:     cfg.Identity.LockoutWindow,
		RecentLoginWindow: cfg.Identity.RecentLoginWindow,
		SignUpDisabled:    !cfg.Identity.SignUpEnabled,
	})
	provider.OnAuthStateChange(profileService.HandleAuthState)

	// --- HTTP ---
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, api.Dependencies{
		Identity:    provider,
		Mode:        modeSwitch,
		Leaderboard: leaderboardService,
		Posts:       postService,
		Profiles:    profileService,
		Settings:    settingsService,
		Exports:     exportService,
		Metrics:     metricsManager,
		Gatherer:    registry,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s (mode %s)", cfg.Server.Address, modeSwitch.Active())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infoln("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	log.Infoln("server exiting")
}

func openStores(cfg config.DatabaseConfig) (*stores, error) {
	switch cfg.Driver {
	case "memory":
		log.Warnln("using the in-memory store, data is lost on exit")
		return &stores{
			records:     memory.NewRecordRepository(),
			users:       memory.NewUserRepository(),
			settings:    memory.NewSettingsRepository(),
			credentials: memory.NewCredentialRepository(),
			exports:     memory.NewExportRepository(),
			close:       func() {},
		}, nil
	case "mongo", "":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Name)
		log.WithField("database", cfg.Name).Infoln("database connection established")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		mongo.EnsureIndexes(ctx, db)
		cancel()

		return &stores{
			records:     mongo.NewMongoRecordRepository(db),
			users:       mongo.NewMongoUserRepository(db),
			settings:    mongo.NewMongoSettingsRepository(db),
			credentials: mongo.NewMongoCredentialRepository(db),
			exports:     mongo.NewMongoExportRepository(db),
			close: func() {
				if err := mongo.DisconnectDB(client); err != nil {
					log.Errorf("failed to disconnect MongoDB: %v", err)
				}
			},
		}, nil
	default:
		return nil, errors.New("unknown database driver " + cfg.Driver)
	}
}
