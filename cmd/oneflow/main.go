package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/oneflow-hq/oneflow/internal/app"
	"github.com/oneflow-hq/oneflow/internal/finance/bills"
	"github.com/oneflow-hq/oneflow/internal/finance/docnum"
	"github.com/oneflow-hq/oneflow/internal/finance/invoices"
	"github.com/oneflow-hq/oneflow/internal/finance/purchaseorders"
	"github.com/oneflow-hq/oneflow/internal/finance/salesorders"
	"github.com/oneflow-hq/oneflow/internal/platform/cache"
	"github.com/oneflow-hq/oneflow/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Numbering degrades to collision-free fallback numbers when Redis is
	// unreachable, so a cache outage never blocks document creation.
	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, document numbering falls back", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	numbers := docnum.NewSequenceGenerator(nil)
	if redisClient != nil {
		numbers = docnum.NewSequenceGenerator(redisClient)
	}

	soService := salesorders.NewService(salesorders.NewRepository(pool), numbers)
	poService := purchaseorders.NewService(purchaseorders.NewRepository(pool), numbers)
	invoiceService := invoices.NewService(invoices.NewRepository(pool), numbers)
	billService := bills.NewService(bills.NewRepository(pool), numbers)

	router := app.NewRouter(app.RouterConfig{
		Middleware: app.MiddlewareConfig{
			Logger: logger,
			Config: cfg,
		},
		SalesOrders:    salesorders.NewHandler(logger, soService),
		PurchaseOrders: purchaseorders.NewHandler(logger, poService),
		Invoices:       invoices.NewHandler(logger, invoiceService),
		Bills:          bills.NewHandler(logger, billService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
