package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/payout-worker/consumer"
	"github.com/radieske/bet-settlement-core/internal/payout-worker/repo"
	"github.com/radieske/bet-settlement-core/internal/shared/config"
	"github.com/radieske/bet-settlement-core/internal/shared/db"
	"github.com/radieske/bet-settlement-core/internal/shared/kafka"
	"github.com/radieske/bet-settlement-core/internal/shared/logger"
	"github.com/radieske/bet-settlement-core/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payout-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: users.balance + payout_credits
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	ledger := repo.NewPostgres(pg)

	// Kafka consumer (consumer group payout-worker)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPayouts, "payout-worker")
	defer reader.Close()

	var dlq *kafkago.Writer
	if cfg.TopicPayoutsDLQ != "" {
		dlq = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPayoutsDLQ)
		defer dlq.Close()
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, ledger.Ping)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	proc := &consumer.Processor{
		Log:     log,
		Reader:  reader,
		Ledger:  ledger,
		Retries: 3,
		Backoff: 300 * time.Millisecond,
		OnStage: metrics.RecordPayoutWorker,
	}
	if dlq != nil {
		proc.DLQ = dlq
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("payout-worker started",
		zap.String("consume", cfg.TopicPayouts),
		zap.String("dlq", cfg.TopicPayoutsDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}
	log.Info("payout-worker stopped")
}
