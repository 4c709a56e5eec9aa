package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"feedback-board/internal/auth"
	"feedback-board/internal/config"
	apphttp "feedback-board/internal/http"
	"feedback-board/internal/repository"
	"feedback-board/internal/repository/postgres"
	"feedback-board/internal/repository/sqlite"
	"feedback-board/internal/service"
	"feedback-board/internal/session"
	"feedback-board/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	} else {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	logger.Infof("using %s database", cfg.Database.Driver)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	userService := service.NewUserService(store.Users, hasher, logger)
	feedbackService := service.NewFeedbackService(store.Feedback)

	sessions, err := session.NewManager(session.Config{
		Secret: []byte(cfg.Session.Secret),
		TTL:    cfg.SessionTTL(),
		Logger: logger,
	}, store.Sessions, store.Users)
	if err != nil {
		logger.Fatalf("setup sessions: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	exportService := service.NewExportService(service.ExportConfig{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
	}, storageSvc, userService, feedbackService, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		feedbackService,
		service.NewGuard(sessions, feedbackService),
		sessions,
		exportService,
		session.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie,
		},
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func openStore(ctx context.Context, cfg config.Config) (*sql.DB, *repository.Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err = postgres.Open(ctx, cfg.Database.DSN)
	default:
		db, err = sqlite.Open(cfg.Database.Path)
	}
	if err != nil {
		return nil, nil, err
	}

	var store *repository.Store
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err = postgres.NewStore(ctx, db)
	default:
		store, err = sqlite.NewStore(ctx, db)
	}
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init schema: %w", err)
	}
	return db, store, nil
}

// buildStorage returns nil when no bucket is configured; exports are then disabled.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not configured, exports disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
