// =============================================================================
// 🖥️ DesignFlow HTTP 服务装配
// =============================================================================
// 将配置装配为运行中的服务: 日志、指标、遥测、总线、协调器、存储、HTTP 路由
// =============================================================================

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parametriq/designflow/agents"
	"github.com/parametriq/designflow/api"
	"github.com/parametriq/designflow/bus"
	"github.com/parametriq/designflow/config"
	"github.com/parametriq/designflow/coordination"
	"github.com/parametriq/designflow/internal/metrics"
	"github.com/parametriq/designflow/internal/telemetry"
	"github.com/parametriq/designflow/persistence"
	"github.com/parametriq/designflow/session"
)

// serve 装配并运行服务，阻塞直到收到终止信号
func serve(cfg *config.Config) error {
	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting designflow",
		zap.String("version", Version),
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.String("store_type", cfg.Store.Type),
	)

	// 遥测（可选）
	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	// Prometheus 指标
	collector := metrics.NewCollector("designflow", nil, logger)

	// 消息总线
	messageBus := bus.NewMessageBus(logger)
	if cfg.Bus.BufferSize > 0 {
		messageBus.SetBufferSize(cfg.Bus.BufferSize)
	}
	messageBus.SetCollector(collector)
	defer messageBus.Close()

	// 协调器 + 默认评审团
	coordinator := coordination.NewAgentCoordinator(coordination.Config{
		ApprovalThreshold: cfg.Engine.ApprovalThreshold,
		ConsensusSpread:   cfg.Engine.ConsensusSpread,
		EvaluationTimeout: cfg.Engine.EvaluationTimeout,
	}, logger)
	coordinator.SetCollector(collector)

	coordinator.RegisterAgent(agents.NewArchitecturalAgent("arch-1", logger))
	coordinator.RegisterAgent(agents.NewSafetyAgent("safety-1", logger))
	coordinator.RegisterAgent(agents.NewStructuralAgent("struct-1", logger))
	coordinator.RegisterAgent(agents.NewMEPAgent("mep-1", logger))

	// 会话结果存储
	store, err := persistence.NewSessionStore(storeConfig(cfg.Store), logger)
	if err != nil {
		return fmt.Errorf("init session store: %w", err)
	}
	defer store.Close()

	// HTTP 路由
	mux := http.NewServeMux()
	apiServer := api.NewServer(coordinator, messageBus, store, session.Config{
		MaxIterations: cfg.Engine.MaxIterations,
	}, logger)
	apiServer.SetCollector(collector)
	apiServer.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	// 中间件链
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	middlewares := []Middleware{
		Recovery(logger),
		RequestID(),
		RequestLogger(logger),
	}
	if cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares, RateLimiter(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger))
	}
	if cfg.Server.AuthEnabled {
		middlewares = append(middlewares, JWTAuth(cfg.Server.JWTSecret, []string{"/healthz", "/metrics"}, logger))
	}
	handler := Chain(mux, middlewares...)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("designflow stopped")
	return nil
}

// buildLogger 根据日志配置创建 zap.Logger
func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

// storeConfig 将应用配置映射为存储层配置
func storeConfig(cfg config.StoreConfig) persistence.Config {
	return persistence.Config{
		Type: persistence.StoreType(cfg.Type),
		Redis: persistence.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			PoolSize:  cfg.Redis.PoolSize,
		},
		Database: persistence.DatabaseConfig{
			Driver: cfg.Database.Driver,
			DSN:    cfg.Database.DSN,
		},
		Mongo: persistence.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		},
	}
}
