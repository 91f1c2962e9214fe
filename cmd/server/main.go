package main

import (
	"SchemaDesk/internal/blob"
	"SchemaDesk/internal/config"
	"SchemaDesk/internal/events"
	"SchemaDesk/internal/handlers"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/middleware"
	"SchemaDesk/internal/repo"
	"SchemaDesk/internal/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) error {
	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	docs := repo.NewDocumentRepository(gormDB)
	userRepo := repo.NewUserRepository(gormDB)

	hub := events.NewHub(64)
	defer hub.Close()
	pub := events.Multi{hub}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL, nats.Name("schemadesk-server"))
		if err != nil {
			// без брокера консоль работает, теряются только внешние подписчики
			sugar.Warnw("NATS unavailable, events stay in-process", "url", cfg.NATSURL, "error", err)
		} else {
			defer np.Close()
			pub = append(pub, np)
		}
	}

	var (
		store blob.Store
		files *blob.DBStore
	)
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		s3Store, err := blob.NewS3Store(ctx, blob.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return err
		}
		store = s3Store
	default:
		files = blob.NewDBStore(repo.NewBlobRepository(gormDB), "")
		store = files
	}

	views := listing.NewDocumentRegistry(docs, docs, sugar)
	userService := service.NewUserService(userRepo, cfg.AuthSecret, service.LogMailer{Log: sugar}, sugar)
	collectionService := service.NewCollectionService(docs, views, pub, sugar)
	itemService := service.NewItemService(docs, collectionService, pub, sugar)

	h := handlers.NewHandler(handlers.Deps{
		Users:       userService,
		Collections: collectionService,
		Items:       itemService,
		Views:       views,
		Uploader:    blob.NewUploader(store, cfg.UploadMaxBytes(), sugar),
		Files:       files,
		Hub:         hub,
		Logger:      sugar,
		Config:      cfg,
	})

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow("Starting server", "addr", srv.Addr)
	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"BlobBackend", cfg.BlobBackend,
		"NATS", cfg.NATSURL != "",
		"ConfigFile", cfg.ConfigFile,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sugar.Infow("Shutting down")
		// websocket-подписчики получают закрытие канала и отключаются
		_ = hub.Close()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	})
	return g.Wait()
}
