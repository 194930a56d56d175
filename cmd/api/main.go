package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/festpay/festpay-backend/api/routes"
	authsvc "github.com/festpay/festpay-backend/internal/auth"
	"github.com/festpay/festpay-backend/internal/dispatch"
	"github.com/festpay/festpay-backend/internal/events"
	"github.com/festpay/festpay-backend/internal/orders"
	"github.com/festpay/festpay-backend/internal/reports"
	"github.com/festpay/festpay-backend/internal/settlement"
	"github.com/festpay/festpay-backend/internal/stalls"
	"github.com/festpay/festpay-backend/internal/wallets"
	"github.com/festpay/festpay-backend/pkg/auth/session"
	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db"
	"github.com/festpay/festpay-backend/pkg/logger"
	"github.com/festpay/festpay-backend/pkg/metrics"
	"github.com/festpay/festpay-backend/pkg/migrate"
	"github.com/festpay/festpay-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	platformMetrics := metrics.NewPlatformMetrics(prometheus.DefaultRegisterer)
	broker := dispatch.NewHub(cfg.Dispatch.SubscriberBuffer, cfg.Dispatch.PublishTimeout, logg, platformMetrics)

	conn := dbClient.DB()

	walletRepo := wallets.NewRepository(conn)
	walletService, err := wallets.NewService(dbClient, walletRepo, cfg.Password, platformMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(conn, platformMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(dbClient, orders.NewRepository(conn), walletService, settlementService, broker, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	stallService, err := stalls.NewService(dbClient, stalls.NewRepository(conn), cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create stall service", err)
		os.Exit(1)
	}

	eventService, err := events.NewService(dbClient, events.NewRepository(conn), cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create event service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(reports.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.NewRepository(conn), sessionManager, walletService, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Broker:      broker,
		AuthService: authService,
		Wallets:     walletService,
		WalletRepo:  walletRepo,
		Orders:      orderService,
		Stalls:      stallService,
		Events:      eventService,
		Reports:     reportService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		err = multierr.Append(err, redisClient.Close())
		err = multierr.Append(err, dbClient.Close())
		if err != nil {
			logg.Error(ctx, "shutdown finished with errors", err)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
