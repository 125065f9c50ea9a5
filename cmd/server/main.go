package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "bookingcore/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"bookingcore/internal/auth"
	"bookingcore/internal/cache"
	"bookingcore/internal/config"
	"bookingcore/internal/db"
	"bookingcore/internal/gateway"
	"bookingcore/internal/handler"
	"bookingcore/internal/logging"
	"bookingcore/internal/model"
	"bookingcore/internal/repository"
	"bookingcore/internal/router"
	"bookingcore/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Booking Core API
// @version 1.0
// @description Vacation rental reservations with online payment.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gatewayFields := logrus.Fields{}
	for k, v := range cfg.GatewayStatus() {
		gatewayFields[k] = v
	}
	logger.WithFields(gatewayFields).Info("payment gateway configuration")
	if !cfg.Gateway.Configured() {
		logger.Warn("payment gateway credentials missing, online payments will be refused")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("database init")
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" && !cfg.IsProduction() {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		tables := []interface{}{
			&model.PaymentEvent{},
			&model.Notification{},
			&model.ConnectorEarning{},
			&model.Booking{},
			&model.Property{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				logger.WithError(err).Warn("drop table failed (may not exist)")
			}
		}
	}

	if err := gormDB.AutoMigrate(
		&model.Property{},
		&model.Booking{},
		&model.ConnectorEarning{},
		&model.Notification{},
		&model.PaymentEvent{},
	); err != nil {
		logger.WithError(err).Fatal("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	store := repository.NewStore(gormDB)
	conflicts := service.NewReservationConflictChecker(cfg.PendingGraceWindow)
	gatewayClient := gateway.NewClient(cfg.Gateway, logger)
	verifier := gateway.NewVerifier(cfg.Gateway)
	recorder := service.NewPaymentEventRecorder(repository.NewPaymentEventRepository(gormDB), logger)
	commission := service.NewCommissionService(logger)
	notifier := service.NewOutboxNotifier(logger)
	availability := service.NewAvailabilityService(store, conflicts, cacheClient)

	bookingService := service.NewBookingService(service.BookingServiceDeps{
		Store:           store,
		Conflicts:       conflicts,
		Gateway:         gatewayClient,
		Commission:      commission,
		Notifier:        notifier,
		Events:          recorder,
		Availability:    availability,
		Logger:          logger,
		InitiateTimeout: cfg.Gateway.Timeout,
	})
	paymentService := service.NewPaymentService(service.PaymentServiceDeps{
		Store:        store,
		Conflicts:    conflicts,
		Status:       gatewayClient,
		Verifier:     verifier,
		Commission:   commission,
		Notifier:     notifier,
		Events:       recorder,
		Availability: availability,
		Logger:       logger,
		Gateway:      cfg.Gateway,
		FrontendURL:  cfg.FrontendURL,
		Production:   cfg.IsProduction(),
	})
	seeder := service.NewPropertySeeder(store, logger)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	errs := &handler.ErrorWriter{Logger: logger, Debug: cfg.Debug && !cfg.IsProduction()}
	handlers := router.Handlers{
		Booking:      handler.NewBookingHandler(bookingService, errs),
		Payment:      handler.NewPaymentHandler(paymentService, verifier, errs),
		Availability: handler.NewAvailabilityHandler(availability, errs),
		Vendor:       handler.NewVendorHandler(bookingService, errs),
		Admin:        handler.NewAdminHandler(paymentService, recorder, errs),
		Seed:         handler.NewSeedHandler(seeder, errs),
		Auth:         handler.NewAuthHandler(tokenStore, errs),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, logger, jwtService, tokenStore, handlers)

	logger.Infof("Swagger documentation available at: %s", swaggerURL(cfg.SwaggerHost, cfg.ServerPort))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown")
	}
	recorder.Close()
	if err := cacheClient.Close(); err != nil {
		logger.WithError(err).Warn("cache close")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// swaggerURL builds the externally visible docs URL. host may carry a scheme.
func swaggerURL(host, port string) string {
	switch {
	case host == "":
		return "http://localhost:" + port + "/swagger/index.html"
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return host + "/swagger/index.html"
	default:
		return "http://" + host + "/swagger/index.html"
	}
}
