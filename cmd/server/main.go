package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/connectorhub/registry/internal/config"
	"github.com/connectorhub/registry/internal/httpapi"
	"github.com/connectorhub/registry/internal/iconstore"
	"github.com/connectorhub/registry/internal/identity"
	"github.com/connectorhub/registry/internal/metrics"
	"github.com/connectorhub/registry/internal/middleware"
	"github.com/connectorhub/registry/internal/platform/migrations"
	"github.com/connectorhub/registry/internal/registry/services"
	"github.com/connectorhub/registry/internal/registry/storage/postgres"
	"github.com/connectorhub/registry/pkg/logger"
)

func main() {
	godotenv.Load()

	log := logger.NewDefault("registry")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("configuration")
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Apply(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store := postgres.New(db)
	issuer := identity.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	m := metrics.New("registry")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("aws config: %w", err)
	}
	provider := identity.NewCognito(
		cognitoidentityprovider.NewFromConfig(awsCfg), cfg.CognitoClientID, cfg.CognitoPoolID)
	icons := iconstore.NewS3Store(
		s3.NewPresignClient(s3.NewFromConfig(awsCfg)), cfg.IconBucket, cfg.IconUploadExpiry)

	apps := services.NewApps(store, store, store, icons, m, log)
	vendors := services.NewVendors(store, log)
	auth := services.NewAuth(provider, issuer, store, cfg.AdminEmails, log)

	handler := httpapi.New(apps, vendors, auth, middleware.NewAuthMiddleware(issuer, log), m, log)
	cors := middleware.NewCORSMiddleware(cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      cors.Handler(handler.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
