package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/background"
	"github.com/Domenick1991/travelagent/internal/bootstrap"
	"github.com/Domenick1991/travelagent/internal/cache"
	"github.com/Domenick1991/travelagent/internal/email"
	"github.com/Domenick1991/travelagent/internal/kafka"
	"github.com/Domenick1991/travelagent/internal/logger"
	"github.com/Domenick1991/travelagent/internal/payment"
	"github.com/Domenick1991/travelagent/internal/pricing"
	"github.com/Domenick1991/travelagent/internal/repository"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/Domenick1991/travelagent/internal/service/destinations"
	"github.com/Domenick1991/travelagent/internal/service/notification"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.New(cfg.Logger)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		lg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	taxRate, err := cfg.Booking.TaxRateDecimal()
	if err != nil {
		lg.Fatal("tax rate", zap.Error(err))
	}

	gateway, err := payment.NewStripeGateway(cfg.Stripe, lg)
	if err != nil {
		lg.Fatal("init stripe", zap.Error(err))
	}

	checks := map[string]func(context.Context) error{"postgres": pool.Ping}

	var (
		destinationOpts []destinations.DestinationServiceOption
		limiter         *cache.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			lg.Warn("redis unreachable, continuing without warm cache", zap.Error(err))
		}
		destinationOpts = append(destinationOpts,
			destinations.WithCache(redisCache, cfg.Booking.FeaturedCacheTTL(), cfg.Booking.PopularCacheTTL()))
		limiter = cache.NewRateLimiter(redisCache.Client())
		checks["redis"] = redisCache.Ping
	}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, lg)
		defer producer.Close()
	}

	var sender email.Sender = email.NewSMTPSender(cfg.Email, lg)
	if cfg.Email.Delivery == "queue" {
		sender = email.NewQueueSender(producer, cfg.Kafka.NotificationsTopic)
	}

	runner := background.NewRunner(lg, cfg.Booking.SideEffectTimeout())
	defer runner.Wait()

	bookingRepo := repository.NewBookingRepository(pool)
	destinationRepo := repository.NewDestinationRepository(pool)
	notifier := notification.NewService(sender, repository.NewNotificationRepository(pool), lg)

	bookingOpts := []booking.BookingServiceOption{booking.WithCurrency(cfg.Booking.Currency)}
	if producer != nil && cfg.Kafka.BookingEventsTopic != "" {
		bookingOpts = append(bookingOpts, booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic))
	}

	bookingService := booking.NewBookingService(
		bookingRepo,
		destinationRepo,
		pricing.NewCalculator(taxRate),
		gateway,
		notifier,
		runner,
		lg,
		bookingOpts...,
	)
	destinationService := destinations.NewDestinationService(
		destinationRepo,
		repository.NewAnalyticsRepository(pool),
		runner,
		lg,
		destinationOpts...,
	)

	deps := bootstrap.Dependencies{
		Bookings:     bookingService,
		Destinations: destinationService,
		Webhooks:     gateway,
		Checks:       checks,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}

	if err := bootstrap.Run(ctx, cfg, deps, lg); err != nil {
		lg.Error("server error", zap.Error(err))
	}
}
