package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/smartcart/internal/config"
	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/internal/handlers"
	"github.com/nimasrn/smartcart/internal/repository"
	"github.com/nimasrn/smartcart/internal/services"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/pg"
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
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// transport
	opt := xhttp.DefaultServerOption
	opt.ReadTimeout = cfg.HttpReadTimeout
	opt.WriteTimeout = cfg.HttpWriteTimeout
	s := xhttp.NewServer(opt)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.CORSMiddleware(cfg.CorsAllowOrigin))
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))
	// the timeout handler runs the rest of the chain on its own goroutine
	s.Use(xhttp.RecoverMiddleware)

	db, err := pg.CreateReadWrite(cfg.ReadDB(), cfg.WriteDB(), cfg.IsDev())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	// The feed is best effort: without redis the register works, the
	// cashier terminal just stops receiving events.
	var events services.EventPublisher
	redisAdap, err := redis.NewRedisAdapter(ctx, cfg.RedisUniversalKeyPrefix, cfg.Redis("api"))
	if err != nil {
		logger.Warn("redis unavailable, register feed disabled", "error", err)
	} else {
		defer redisAdap.Close()
		f, err := feed.New(ctx, redisAdap, cfg.Feed())
		if err != nil {
			logger.Warn("register feed disabled", "error", err)
		} else {
			events = f
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
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

	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	intentRepo := repository.NewCashIntentRepository(db)
	historyRepo := repository.NewCashierCodeHistoryRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// services
	catalogService := services.NewCatalogService(productRepo)
	customerService := services.NewCustomerService(customerRepo)
	purchaseService := services.NewPurchaseService(purchaseRepo, intentRepo, events, metrics)
	cashierService := services.NewCashierService(intentRepo, historyRepo, events, metrics, cfg.CashIntentTTL, cfg.CashierCodeLength)
	adminService := services.NewAdminService(adminRepo)
	healthService := services.NewHealthService(db)

	handlers.RegisterRoutes(s.Router, handlers.Set{
		Products:  handlers.NewProductHandler(catalogService),
		Customers: handlers.NewCustomerHandler(customerService),
		Purchases: handlers.NewPurchaseHandler(purchaseService),
		Cashier:   handlers.NewCashierHandler(cashierService),
		Admin:     handlers.NewAdminHandler(adminService),
		Health:    handlers.NewHealthHandler(healthService),
	})

	if cfg.CashIntentSweepInterval > 0 {
		go cashierService.RunSweeper(ctx, cfg.CashIntentSweepInterval)
	}

	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	s.Shutdown()
}
