package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agronond/mandi-backend/api/routes"
	"github.com/agronond/mandi-backend/internal/audit"
	"github.com/agronond/mandi-backend/internal/auth"
	"github.com/agronond/mandi-backend/internal/bills"
	"github.com/agronond/mandi-backend/internal/lots"
	"github.com/agronond/mandi-backend/internal/notifications"
	"github.com/agronond/mandi-backend/internal/reports"
	"github.com/agronond/mandi-backend/internal/sequence"
	"github.com/agronond/mandi-backend/internal/transactions"
	"github.com/agronond/mandi-backend/internal/users"
	"github.com/agronond/mandi-backend/pkg/auth/session"
	"github.com/agronond/mandi-backend/pkg/config"
	"github.com/agronond/mandi-backend/pkg/db"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/metrics"
	"github.com/agronond/mandi-backend/pkg/migrate"
	"github.com/agronond/mandi-backend/pkg/redis"
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	lotRepo := lots.NewRepository(dbClient.DB())
	txnRepo := transactions.NewRepository(dbClient.DB())
	billRepo := bills.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())
	reportRepo := reports.NewRepository(dbClient.DB())

	allocator := sequence.NewAllocator()
	recorder, err := audit.NewRecorder(audit.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:    userRepo,
		Sessions: sessionManager,
		OTP:      redisClient,
		JWT:      cfg.JWT,
		OTPCfg:   cfg.OTP,
		Flags:    cfg.Features,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, dbClient, allocator, recorder, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	transactionService, err := transactions.NewService(txnRepo, billRepo, allocator)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	lotMetrics := metrics.NewLotMetrics(prometheus.DefaultRegisterer)
	lotService, err := lots.NewService(
		lotRepo,
		dbClient,
		allocator,
		transactionService,
		recorder,
		notificationService,
		lots.CommissionRates{
			Farmer: cfg.Commission.FarmerRateDecimal(),
			Trader: cfg.Commission.TraderRateDecimal(),
		},
		lotMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create lots service", err)
		os.Exit(1)
	}

	billService, err := bills.NewService(billRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create bills service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(reportRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			userService,
			lotService,
			transactionService,
			billService,
			notificationService,
			reportService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
