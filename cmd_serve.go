package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mytown-issues/config"
	"mytown-issues/controllers"
	"mytown-issues/middlewares"
	"mytown-issues/routes"
	"mytown-issues/services"
	"mytown-issues/storage"
	"mytown-issues/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := b.Close(closeCtx); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}()

	if cfg.SeedOnStart {
		issues, err := loadSeed(cfg)
		if err != nil {
			return err
		}
		added, err := store.Seed(ctx, b.Issues, issues)
		if err != nil {
			return err
		}
		logger.Info("Seeded issues", zap.Int("added", added))
	}

	created, err := services.EnsureAdmin(ctx, b.Users, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("Administrator account created", zap.String("email", cfg.AdminEmail))
	}

	var counter middlewares.RateCounter
	if cfg.RateLimitEnabled() {
		rdb, err := config.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		counter = middlewares.RedisCounter{Client: rdb}
		logger.Info("Issue rate limit enabled", zap.Int("daily_limit", cfg.IssueDailyLimit))
	}

	var photos storage.PhotoStore = storage.Disabled{}
	if cfg.PhotosEnabled() {
		photos, err = storage.NewMinioPhotoStore(ctx, storage.MinioConfig{
			Endpoint:   cfg.MinioEndpoint,
			AccessKey:  cfg.MinioAccessKey,
			SecretKey:  cfg.MinioSecretKey,
			Bucket:     cfg.MinioBucket,
			UseSSL:     cfg.MinioUseSSL,
			Insecure:   cfg.MinioInsecure,
			PublicBase: cfg.MinioPublicBase,
		}, logger)
		if err != nil {
			return err
		}
	}

	submitter := services.NewSubmitter(b.Issues, photos, logger, services.SubmitterConfig{
		Delay: cfg.SubmitDelay,
	})
	defer submitter.Close()

	router, err := routes.SetupRouter(routes.Deps{
		Auth: &controllers.AuthController{
			Users:      b.Users,
			Secret:     cfg.JWTSecret,
			TokenTTL:   cfg.TokenTTL,
			Domain:     cfg.Domain,
			Production: cfg.Production(),
			Logger:     logger,
		},
		Issues: &controllers.IssueController{
			Issues:        b.Issues,
			Submitter:     submitter,
			MaxPhotoBytes: cfg.MaxPhotoBytes,
			Logger:        logger,
		},
		Map: &controllers.MapController{
			Issues:      b.Issues,
			AccessToken: cfg.MapboxToken,
			Logger:      logger,
		},
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		Logger:          logger,
		RateCounter:     counter,
		RateLimitPrefix: cfg.RateLimitPrefix,
		IssueDailyLimit: cfg.IssueDailyLimit,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
