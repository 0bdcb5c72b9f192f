package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/radieske/bet-settlement-core/internal/settlement-service/http"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/notifier"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/payout"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/registry"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/repo"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/service"
	"github.com/radieske/bet-settlement-core/internal/shared/cache"
	"github.com/radieske/bet-settlement-core/internal/shared/config"
	"github.com/radieske/bet-settlement-core/internal/shared/cron"
	"github.com/radieske/bet-settlement-core/internal/shared/db"
	"github.com/radieske/bet-settlement-core/internal/shared/kafka"
	"github.com/radieske/bet-settlement-core/internal/shared/logger"
	"github.com/radieske/bet-settlement-core/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-service"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	// Redis: notificações e cache do registro de resultados
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("redis connected")

	// Kafka writer para os pedidos de pagamento (process_winnings)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPayouts)
	defer writer.Close()
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicPayouts))

	// deps
	store := repo.NewPostgres(pg)
	labels := registry.NewCached(redisClient, registry.NewPostgres(pg), cfg.OutcomeLabelsTTL, log)
	svc := service.New(log, store, labels, notifier.NewRedis(redisClient), payout.NewKafkaDispatcher(writer))

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return kafka.Ping(ctx, cfg.KafkaBrokers)
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// varredura periódica de eventos concluídos com apostas pendentes
	runner := cron.New(log, ctx)
	if _, err := runner.Add(cfg.SweepSpec, func(ctx context.Context) {
		if _, err := svc.Sweep(ctx, cfg.SweepLimit); err != nil {
			log.Warn("settlement sweep failed", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("invalid sweep spec", zap.String("spec", cfg.SweepSpec), zap.Error(err))
	}
	runner.Start()

	// HTTP público
	api := &httpapi.API{Log: log, Svc: svc, CORSOrigins: cfg.CORSOrigins}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	runner.Stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("settlement-service stopped")
}
