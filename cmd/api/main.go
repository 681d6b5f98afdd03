package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-tickets/internal/api/http"
	"github.com/spec-kit/storefront-tickets/internal/api/http/handlers"
	"github.com/spec-kit/storefront-tickets/internal/auth"
	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/events"
	"github.com/spec-kit/storefront-tickets/internal/observability"
	"github.com/spec-kit/storefront-tickets/internal/payment"
	"github.com/spec-kit/storefront-tickets/internal/persistence"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	"github.com/spec-kit/storefront-tickets/internal/service"
	"github.com/spec-kit/storefront-tickets/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	gw, err := persistence.OpenGateway(ctx, cfg.Store, pg, rdb, logger)
	if err != nil {
		logger.Fatal("failed to open collection store", zap.Error(err))
	}

	catalogRepo := repository.NewCatalogRepository(gw)
	orderRepo := repository.NewOrderRepository(gw)
	counterRepo := repository.NewCounterRepository(gw)
	discountRepo := repository.NewDiscountRepository(gw)
	referralRepo := repository.NewReferralRepository(gw)
	loyaltyRepo := repository.NewLoyaltyRepository(gw)

	dispatcher := events.NewInMemoryDispatcher()

	var sink service.EventSink
	var publisher *events.KafkaPublisher
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.BufferSize, logger)
		publisher.Start(ctx)
		sink = publisher
	}
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, sink, logger, cfg.Notification))

	registry := service.NewTicketRegistry()
	ticketService := service.NewTicketService(service.TicketDependencies{
		Registry:     registry,
		CatalogRepo:  catalogRepo,
		OrderRepo:    orderRepo,
		CounterRepo:  counterRepo,
		DiscountRepo: discountRepo,
		ReferralRepo: referralRepo,
		Tiers:        service.NewConfigTierResolver(cfg.Commerce.RoleDiscounts),
		Presenter:    payment.NewInvoicePresenter(cfg.Payment, nil, logger),
		Display:      service.NewEventCartDisplay(dispatcher, nil),
		Dispatcher:   dispatcher,
		Logger:       logger,
		Commerce:     cfg.Commerce,
	})
	claimService := service.NewClaimService(service.ClaimDependencies{
		Registry:   registry,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:    orderRepo,
		CatalogRepo:  catalogRepo,
		DiscountRepo: discountRepo,
		LoyaltyRepo:  loyaltyRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Commerce:     cfg.Commerce,
	})
	loyaltyService := service.NewLoyaltyService(service.LoyaltyDependencies{
		LoyaltyRepo:  loyaltyRepo,
		DiscountRepo: discountRepo,
		ReferralRepo: referralRepo,
		CounterRepo:  counterRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Commerce:     cfg.Commerce,
	})
	renewalService := service.NewRenewalService(service.RenewalDependencies{
		OrderRepo:   orderRepo,
		CatalogRepo: catalogRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Renewal:     cfg.Renewal,
	})
	catalogService := service.NewCatalogService(catalogRepo, logger)
	discountService := service.NewDiscountService(service.DiscountDependencies{
		DiscountRepo: discountRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	renewals := worker.NewRenewalWorker(renewalService, cfg.Renewal.Interval(), logger)
	renewals.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	var limiter fiber.Handler
	if cfg.RateLimit.Enabled {
		limiter = httptransport.RateLimit(rdb.Client, cfg.RateLimit.Limit, cfg.RateLimit.Window(), logger)
	}
	if cfg.Store.CacheEnabled || cfg.RateLimit.Enabled {
		deps["redis"] = rdb
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, claimService),
		Orders:         handlers.NewOrdersHandler(orderService),
		Loyalty:        handlers.NewLoyaltyHandler(loyaltyService),
		Products:       handlers.NewProductsHandler(catalogService),
		Discounts:      handlers.NewDiscountsHandler(discountService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		RateLimiter:    limiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	renewals.Wait()
	if publisher != nil {
		publisher.Close()
		publisher.WaitClosed()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
