package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oopsinfosolutions/feed-sub001/config"
	"github.com/oopsinfosolutions/feed-sub001/internal/api/handler"
	"github.com/oopsinfosolutions/feed-sub001/internal/api/router"
	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	"github.com/oopsinfosolutions/feed-sub001/internal/service"
	"github.com/oopsinfosolutions/feed-sub001/pkg/database"
	"github.com/oopsinfosolutions/feed-sub001/pkg/events"
	"github.com/oopsinfosolutions/feed-sub001/pkg/jwt"
	applogger "github.com/oopsinfosolutions/feed-sub001/pkg/logger"
	"github.com/oopsinfosolutions/feed-sub001/pkg/redis"
	"github.com/oopsinfosolutions/feed-sub001/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./config/config.yaml)")
	flag.Parse()

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. datastore
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger, model.All()...); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis, optional: without it logout is a no-op and auth routes are not rate limited
	var revoker service.TokenRevoker
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token blacklist and rate limiting disabled", zap.Error(err))
		rdb = nil
	} else {
		revoker = rdb
	}

	// 5. image store and event publisher
	images, err := storage.NewLocalStore(cfg.Storage.ImageDir, logger)
	if err != nil {
		logger.Fatal("image store init failed", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("shipment events enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// 6. Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, revoker, images, publisher, logger)
	h := handler.NewHandler(cfg, svc, images)

	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 7. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		logger.Error("close event publisher", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		logger.Error("close database", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("stopped")
}
