package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimasrn/smartcart/internal/config"
	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/internal/relay"
	"github.com/nimasrn/smartcart/internal/terminal"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/prom"
	"github.com/nimasrn/smartcart/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	if err := logger.Configure(cfg.LogEnv, cfg.LogLevel); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}
	logger.Info("starting relay", "version", version, "commit", commit, "date", date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisAdap, err := redis.NewRedisAdapter(ctx, cfg.RedisUniversalKeyPrefix, cfg.Redis("relay"))
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	defer redisAdap.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	feedConf := cfg.Feed()
	if feedConf.ConsumerName == "" {
		feedConf.ConsumerName = hostname
	}
	f, err := feed.New(ctx, redisAdap, feedConf)
	if err != nil {
		logger.Error("failed creating feed", "error", err)
		return
	}

	client, err := terminal.NewClient(terminal.Config{
		URL:        cfg.TerminalURL,
		Timeout:    cfg.TerminalTimeout,
		MaxRetries: cfg.TerminalMaxRetries,
		RetryDelay: 100 * time.Millisecond,
		MaxConns:   cfg.RelayWorkers * 2,
	})
	if err != nil {
		logger.Error("failed to create terminal client", "error", err)
		return
	}
	defer client.Close()

	if err := client.Health(ctx); err != nil {
		logger.Warn("cashier terminal not reachable yet", "url", cfg.TerminalURL, "error", err)
	}

	metrics, err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if cfg.MetricsListenAddr != "" {
		go func() {
			if err := metrics.ListenAndServe(cfg.MetricsListenAddr, prom.DefaultMetricsURL); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	idempotency := relay.NewIdempotencyService(redisAdap, relay.DefaultIdempotencyConfig())
	service := relay.NewService(f, relay.NewEventProcessor(client, idempotency, metrics), cfg.RelayWorkers)
	if err := service.Start(ctx); err != nil {
		logger.Error("failed to start relay", "error", err)
		return
	}

	<-ctx.Done()
	service.Stop()

	st := client.Stats()
	logger.Info("terminal client stats", "delivered", st.Delivered, "failed", st.Failed)
}
