package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "willtank/docs" // swagger docs

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"willtank/internal/archive"
	"willtank/internal/auth"
	"willtank/internal/billing"
	"willtank/internal/cache"
	"willtank/internal/config"
	"willtank/internal/db"
	"willtank/internal/handler"
	"willtank/internal/llm"
	"willtank/internal/logger"
	"willtank/internal/mail"
	"willtank/internal/repository"
	"willtank/internal/router"
	"willtank/internal/service"
	"willtank/internal/storage"
)

// @title WillTank API
// @version 1.0
// @description Will creation API with a guided wizard, the Skyler assistant, document packages and subscriptions.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DSN(), !cfg.IsProduction())
	if err != nil {
		logger.Fatal("database init", "error", err)
	}
	if err := db.Migrate(ctx, cfg.DBDriver, gormDB); err != nil {
		logger.Fatal("migrate", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("database handle", "error", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, continuing without cache", "error", err)
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("storage init", "error", err)
	}

	catalog, err := billing.LoadCatalog(cfg.PlansFile, cfg.Stripe)
	if err != nil {
		logger.Fatal("plan catalog", "error", err)
	}

	mailer := mail.NewSender(cfg.Mail)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	willRepo := repository.NewWillRepository(gormDB)
	documentRepo := repository.NewDocumentRepository(gormDB)
	beneficiaryRepo := repository.NewBeneficiaryRepository(gormDB)
	assetRepo := repository.NewAssetRepository(gormDB)
	reminderRepo := repository.NewReminderRepository(gormDB)
	notificationRepo := repository.NewNotificationRepository(gormDB)
	inquiryRepo := repository.NewInquiryRepository(gormDB)
	summaryRepo := repository.NewSummaryRepository(sqlx.NewDb(sqlDB, cfg.DBDriver), cfg.DBDriver)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	codeStore := auth.NewCodeStore(cacheClient)

	dispatcher := service.NewDispatcher(notificationRepo)
	dispatcher.Start(context.Background())

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, codeStore, mailer)
	userService := service.NewUserService(userRepo, cacheClient)
	twoFactorService := service.NewTwoFactorService(userRepo, cacheClient)
	willService := service.NewWillService(willRepo, documentRepo, store, cacheClient, dispatcher)
	documentService := service.NewDocumentService(willRepo, documentRepo, store, dispatcher, cfg.UploadMaxBytes, cfg.AllowedMIME)
	beneficiaryService := service.NewBeneficiaryService(willRepo, beneficiaryRepo)
	assetService := service.NewAssetService(willRepo, assetRepo)
	reminderService := service.NewReminderService(reminderRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	billingService := service.NewBillingService(
		userRepo,
		inquiryRepo,
		billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
		catalog,
		mailer,
		cfg.Mail.SalesEmail,
		dispatcher,
		cacheClient,
	)
	chatService := service.NewChatService(llm.NewOpenAIClient(cfg.LLM))
	packageService := service.NewPackageService(willRepo, documentRepo, store, archive.NewBuilder(cfg.PackageMaxBytes))
	dashboardService := service.NewDashboardService(summaryRepo, willRepo)

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(e, cfg, router.Handlers{
		Auth:      handler.NewAuthHandler(authService, cfg.CookieSecure),
		User:      handler.NewUserHandler(userService),
		TwoFactor: handler.NewTwoFactorHandler(twoFactorService),
		Will:      handler.NewWillHandler(willService),
		Document:  handler.NewDocumentHandler(documentService),
		Estate:    handler.NewEstateHandler(beneficiaryService, assetService),
		Reminder:  handler.NewReminderHandler(reminderService, notificationService),
		Billing:   handler.NewBillingHandler(billingService),
		Chat:      handler.NewChatHandler(chatService),
		Package:   handler.NewPackageHandler(packageService, dashboardService),
	}, tokenStore)

	logger.Info("swagger documentation available", "url", swaggerURL(cfg))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	dispatcher.Stop()
	if err := cacheClient.Close(); err != nil {
		logger.Warn("close cache", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", "error", err)
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
