package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gigsetu/gigsetu-backend/internal/config"
	"github.com/gigsetu/gigsetu-backend/internal/db"
	"github.com/gigsetu/gigsetu-backend/internal/gateway"
	httpHandlers "github.com/gigsetu/gigsetu-backend/internal/http/handlers"
	httpRouter "github.com/gigsetu/gigsetu-backend/internal/http/router"
	"github.com/gigsetu/gigsetu-backend/internal/logger"
	"github.com/gigsetu/gigsetu-backend/internal/pricing"
	"github.com/gigsetu/gigsetu-backend/internal/repository"
	"github.com/gigsetu/gigsetu-backend/internal/service"
	"github.com/gigsetu/gigsetu-backend/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load configuration: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: failed to connect to database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	pricer := pricing.NewEngine(cfg.Pricing.CommissionRate, cfg.Pricing.TaxRate, cfg.Pricing.AdvanceRate)
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey)

	// Repositories.
	bookingRepo := repository.NewBookingRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)

	// Services.
	bookingService := service.NewBookingService(bookingRepo, pricer, gatewayClient)
	ledgerService := service.NewLedgerService(ledgerRepo)
	walletService := service.NewWalletService(walletRepo)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, walletRepo, pricer, cfg.Pricing.MinimumWithdrawal)

	// Websockets.
	hub := ws.NewHub()
	go hub.Run()

	bookingService.SetHub(hub)
	ledgerService.SetHub(hub)
	withdrawalService.SetHub(hub)

	// HTTP handlers.
	bookingHandler := httpHandlers.NewBookingHandler(bookingService, ledgerService)
	paymentHandler := httpHandlers.NewPaymentHandler(ledgerService, cfg.GatewayAPIKey)
	walletHandler := httpHandlers.NewWalletHandler(walletService)
	withdrawalHandler := httpHandlers.NewWithdrawalHandler(withdrawalService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, bookingHandler, paymentHandler, walletHandler, withdrawalHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("starting http server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: http server error: %v", err)
	}
}

func safeClose(dbConn *sqlx.DB) {
	if err := dbConn.Close(); err != nil {
		log.Printf("main: failed to close database connection: %v", err)
	}
}
