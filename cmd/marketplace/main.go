package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	cartrepo "github.com/Hasin-ai/E-commerce-sub001/internal/cart/repository"
	cartservice "github.com/Hasin-ai/E-commerce-sub001/internal/cart/service"
	"github.com/Hasin-ai/E-commerce-sub001/internal/checkout"
	invrepo "github.com/Hasin-ai/E-commerce-sub001/internal/inventory/repository"
	invservice "github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
	"github.com/Hasin-ai/E-commerce-sub001/internal/notification/email"
	notifservice "github.com/Hasin-ai/E-commerce-sub001/internal/notification/service"
	notifkafka "github.com/Hasin-ai/E-commerce-sub001/internal/notification/transport/kafka"
	orderrepo "github.com/Hasin-ai/E-commerce-sub001/internal/order/repository"
	orderservice "github.com/Hasin-ai/E-commerce-sub001/internal/order/service"
	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/gateway"
	paymentrepo "github.com/Hasin-ai/E-commerce-sub001/internal/payment/repository"
	paymentservice "github.com/Hasin-ai/E-commerce-sub001/internal/payment/service"
	transport "github.com/Hasin-ai/E-commerce-sub001/internal/transport/http"
	"github.com/Hasin-ai/E-commerce-sub001/internal/transport/http/handler"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/config"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/db"
	pkgkafka "github.com/Hasin-ai/E-commerce-sub001/pkg/kafka"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	outboxrepo "github.com/Hasin-ai/E-commerce-sub001/pkg/outbox/repository"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/outbox/worker"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "marketplace")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}
	defer pool.Close()

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "Info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	validate := validator.New()

	cartRepo := cartrepo.NewCartRepository(pool, logger)
	inventoryRepo := invrepo.NewInventoryRepository(pool, logger)
	orderRepo := orderrepo.NewOrderRepository(pool, logger)
	paymentRepo := paymentrepo.NewPaymentRepository(pool, logger)
	outboxRepo := outboxrepo.NewOutboxRepository(pool, logger)

	gw := gateway.NewResilientGateway(gateway.NewSimulator(), cfg.Gateway, logger)

	cartService := cartservice.NewCartService(pool, cartRepo, logger)
	inventoryService := invservice.NewInventoryService(pool, inventoryRepo, logger)
	orderService := orderservice.NewOrderService(pool, orderRepo, outboxRepo, logger)
	paymentService := paymentservice.NewPaymentService(pool, paymentRepo, orderRepo, outboxRepo, gw, logger)

	checkoutService := checkout.NewCheckoutService(cartService, orderService, paymentService, inventoryService, gw, logger)
	reconciler := checkout.NewReconciler(orderService, paymentService, inventoryService, cartService, logger)

	kafkaProducer, err := pkgkafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	notificationService := notifservice.NewNotificationService(email.NewSMTPSender(logger), logger, pool)
	consumer := notifkafka.NewConsumer(notificationService, logger)
	go consumer.Start(ctx, cfg.Kafka.Brokers)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	})
	app.Use(otelfiber.Middleware())

	transport.RegisterRoutes(app, &transport.Handlers{
		Cart:      handler.NewCartHandler(cartService, validate, logger),
		Checkout:  handler.NewCheckoutHandler(checkoutService, reconciler, cfg.Gateway.WebhookSecret, validate, logger),
		Order:     handler.NewOrderHandler(orderService, validate, logger),
		Payment:   handler.NewPaymentHandler(paymentService, validate, logger),
		Inventory: handler.NewInventoryHandler(inventoryService, validate, logger),
	})

	go func() {
		log.Printf("HTTP server listening on %s 🔥", cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(
		shutdownCtx,
		logger,
		"Shutting down marketplace server",
	)

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(
			shutdownCtx,
			logger,
			"Failed to shut down http server",
			zap.Error(err),
		)
	} else {
		log.Println("✅ HTTP server stopped")
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(
			shutdownCtx,
			logger,
			"Failed to shut down telemetry",
			zap.Error(err),
		)
	} else {
		mylogger.Info(
			shutdownCtx,
			logger,
			"Telemetry stopped",
		)
	}
}
