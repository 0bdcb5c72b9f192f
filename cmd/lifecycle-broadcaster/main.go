package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/lifecycle-broadcaster/ws"
	"github.com/radieske/bet-settlement-core/internal/shared/cache"
	"github.com/radieske/bet-settlement-core/internal/shared/config"
	"github.com/radieske/bet-settlement-core/internal/shared/logger"
	"github.com/radieske/bet-settlement-core/internal/shared/metrics"
	"github.com/radieske/bet-settlement-core/pkg/contracts/channels"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "lifecycle-broadcaster"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	hub := ws.NewHub(log, channels.All, allowOrigin(cfg.CORSOrigins))
	done := ws.StartRedisSubscriber(ctx, redisClient, hub, log, channels.All...)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	r := chi.NewRouter()
	r.Get("/ws", hub.HandleWS)
	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("ws listening", zap.String("addr", srv.Addr), zap.Strings("channels", channels.All))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ws server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	<-done
	log.Info("lifecycle-broadcaster stopped")
}

// allowOrigin aceita qualquer origem com "*" ou as origens listadas em CORS_ORIGINS
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if slices.Contains(origins, "*") {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
