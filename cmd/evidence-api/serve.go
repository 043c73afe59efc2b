package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/LaurentK2002/exhibit-flow-guardian-sub000/api/swagger"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/dto"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/handler"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/repository"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/cache"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/config"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/database"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/logger"
	corsmiddleware "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/middleware/requestid"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	validate := dto.NewValidator()

	var notifier service.Notifier
	if cfg.Notifications.Enabled {
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		notifications := service.NewNotificationService(rdb, service.NotificationConfig{
			Channel:    cfg.Notifications.Channel,
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
		}, metrics, logr)
		notifications.Start(ctx)
		defer notifications.Stop()
		notifier = notifications
	}

	blobs, local, err := openBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	caseRepo := repository.NewCaseRepository(db)
	exhibitRepo := repository.NewExhibitRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	activitySvc := service.NewActivityService(activityRepo, caseRepo, notifier, logr)
	caseSvc := service.NewCaseService(caseRepo, exhibitRepo, activitySvc, metrics, validate, logr)
	exhibitSvc := service.NewExhibitService(caseRepo, exhibitRepo, activitySvc, metrics, validate, logr)
	approvalSvc := service.NewApprovalService(approvalRepo, caseRepo, activitySvc, metrics, validate, logr)
	custodySvc := service.NewCustodyService(exhibitRepo, caseRepo, blobs, activitySvc, service.CustodyServiceConfig{
		UnitName: cfg.Custody.UnitName,
		LinkTTL:  cfg.Storage.SignedURLTTL,
	}, logr)
	documentSvc := service.NewDocumentService(caseRepo, blobs, activitySvc, service.DocumentConfig{
		MaxBytes:     cfg.Storage.MaxUploadBytes,
		AllowedMIMEs: cfg.Storage.AllowedMIMEs,
		LinkTTL:      cfg.Storage.SignedURLTTL,
	}, validate, logr)
	tokens := service.NewTokenService(cfg.JWT, validate)

	handlers := handler.Handlers{
		Cases:     handler.NewCaseHandler(caseSvc),
		Exhibits:  handler.NewExhibitHandler(exhibitSvc),
		Custody:   handler.NewCustodyHandler(custodySvc),
		Approvals: handler.NewApprovalHandler(approvalSvc),
		Activity:  handler.NewActivityHandler(activitySvc),
		Documents: handler.NewDocumentHandler(documentSvc),
		Metrics:   handler.NewMetricsHandler(metrics, db),
	}
	if local != nil {
		handlers.Blobs = handler.NewBlobHandler(local)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.MaxMultipartMemory = 8 << 20

	handler.Register(r, cfg.APIPrefix, handlers, tokens, metrics)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logr.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logr.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

// openBlobStore returns the configured store and, for the local driver, the
// same store as the signed download backend.
func openBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, *storage.LocalStorage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinio:
		store, err := storage.NewMinioStorage(cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure bucket %s: %w", cfg.Storage.Bucket, err)
		}
		return store, nil, nil
	case config.StorageDriverLocal, "":
		signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
		store, err := storage.NewLocalStorage(cfg.Storage.LocalDir, signer, cfg.APIPrefix+"/blobs")
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
