package main

import (
	"fmt"
	"os"
	"time"

	"github.com/centralmei/backend/internal/auth"
	"github.com/centralmei/backend/internal/config"
	"github.com/centralmei/backend/internal/db"
	"github.com/centralmei/backend/internal/event"
	"github.com/centralmei/backend/internal/excel"
	httphandler "github.com/centralmei/backend/internal/http"
	"github.com/centralmei/backend/internal/http/middleware"
	"github.com/centralmei/backend/internal/logger"
	"github.com/centralmei/backend/internal/mercadopago"
	"github.com/centralmei/backend/internal/pdf"
	"github.com/centralmei/backend/internal/repository"
	"github.com/centralmei/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	userRepo := repository.NewUserRepository(database)
	requestRepo := repository.NewRequestRepository(database)
	catalogRepo := repository.NewCatalogRepository(database)
	accountsRepo := repository.NewAccountsRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)

	bus := event.NewBus(log)

	accessTTL, err := time.ParseDuration(cfg.Auth.AccessTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid JWT_ACCESS_TTL")
	}
	tokenIssuer := auth.NewIssuer(cfg.Auth.AccessSecret, accessTTL)
	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	gateway := mercadopago.NewClient(cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken)

	authService := service.NewAuthService(userRepo, tokenIssuer, log)
	catalogService := service.NewCatalogService(catalogRepo)
	requestService := service.NewRequestService(requestRepo, bus, log)
	ledgerService := service.NewLedgerService(ledgerRepo, accountsRepo, userRepo, requestRepo, bus, cfg.Ledger, log)
	accountsService := service.NewAccountsService(accountsRepo)
	reportService := service.NewReportService(ledgerRepo)
	paymentService := service.NewPaymentService(paymentRepo, requestRepo, gateway, cfg.MercadoPago, log)

	ledgerService.RegisterHandlers(bus)

	handler := httphandler.NewHandler(
		authService,
		catalogService,
		requestService,
		paymentService,
		ledgerService,
		accountsService,
		reportService,
		excel.NewGenerator(),
		pdf.NewGenerator(),
		log,
	)

	authMiddleware := middleware.Auth(tokenParser)
	optionalAuth := middleware.OptionalAuth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, optionalAuth, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting centralmei backend")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
