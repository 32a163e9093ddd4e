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

	"github.com/gin-gonic/gin"

	"github.com/lumitrade/exchange/internal/exchange/application"
	"github.com/lumitrade/exchange/internal/exchange/domain"
	"github.com/lumitrade/exchange/internal/exchange/infrastructure/messaging"
	"github.com/lumitrade/exchange/internal/exchange/infrastructure/persistence/memory"
	"github.com/lumitrade/exchange/internal/exchange/infrastructure/persistence/mysql"
	exchangehttp "github.com/lumitrade/exchange/internal/exchange/interfaces/http"
	"github.com/lumitrade/exchange/pkg/config"
	"github.com/lumitrade/exchange/pkg/db"
	"github.com/lumitrade/exchange/pkg/logger"
	"github.com/lumitrade/exchange/pkg/metrics"
	"github.com/lumitrade/exchange/pkg/middleware"
	"github.com/lumitrade/exchange/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/exchange/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.Get()
	ctx := context.Background()

	log.InfoContext(ctx, "starting exchange service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
		"symbol", cfg.Matching.Symbol,
	)

	// 指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
		if err := m.Register(); err != nil {
			log.ErrorContext(ctx, "failed to register metrics", "error", err)
			os.Exit(1)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			log.ErrorContext(ctx, "failed to start metrics server", "error", err)
			os.Exit(1)
		}
	}

	// 持久化
	var (
		tradeRepo    domain.TradeRepository
		snapshotRepo domain.SnapshotRepository
		database     *db.DB
	)
	switch cfg.Database.Driver {
	case "mysql":
		database, err = db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		if err != nil {
			log.ErrorContext(ctx, "failed to init database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		if err := mysql.AutoMigrate(database.DB); err != nil {
			log.ErrorContext(ctx, "failed to migrate database", "error", err)
			os.Exit(1)
		}
		tradeRepo = mysql.NewTradeRepository(database.DB)
		snapshotRepo = mysql.NewSnapshotRepository(database.DB)
	case "memory":
		log.WarnContext(ctx, "using in-memory persistence, trades will not survive restart")
		tradeRepo = memory.NewTradeRepository()
		snapshotRepo = memory.NewSnapshotRepository()
	}

	// 事件发布
	var publisher domain.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			log.ErrorContext(ctx, "failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer)
	} else {
		log.WarnContext(ctx, "kafka brokers not configured, event publishing disabled")
	}

	// 应用服务
	service := application.NewMatchingService(
		cfg.Matching.Symbol,
		tradeRepo,
		snapshotRepo,
		publisher,
		m,
		log,
	)

	// HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinCORSMiddleware(),
	)

	handler := exchangehttp.NewMatchingHandler(service)
	handler.RegisterRoutes(engine)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		log.InfoContext(ctx, "http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "http server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.InfoContext(ctx, "shutting down exchange service")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "http server shutdown failed", "error", err)
	}

	log.InfoContext(ctx, "exchange service stopped")
}
