package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/background"
	"github.com/Domenick1991/travelagent/internal/email"
	"github.com/Domenick1991/travelagent/internal/kafka"
	"github.com/Domenick1991/travelagent/internal/logger"
	"github.com/Domenick1991/travelagent/internal/payment"
	"github.com/Domenick1991/travelagent/internal/pricing"
	"github.com/Domenick1991/travelagent/internal/repository"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/Domenick1991/travelagent/internal/service/notification"
	"github.com/Domenick1991/travelagent/internal/worker"
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	// The worker is the one place that talks SMTP directly.
	smtp := email.NewSMTPSender(cfg.Email, lg)

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, lg)
		defer producer.Close()
	}

	runner := background.NewRunner(lg, cfg.Booking.SideEffectTimeout())
	defer runner.Wait()

	bookingOpts := []booking.BookingServiceOption{booking.WithCurrency(cfg.Booking.Currency)}
	if producer != nil && cfg.Kafka.BookingEventsTopic != "" {
		bookingOpts = append(bookingOpts, booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic))
	}
	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		repository.NewDestinationRepository(pool),
		pricing.NewCalculator(taxRate),
		gateway,
		notification.NewService(smtp, repository.NewNotificationRepository(pool), lg),
		runner,
		lg,
		bookingOpts...,
	)

	scheduler := worker.NewScheduler(bookingService, *cfg, lg)
	if err := scheduler.Register(ctx); err != nil {
		lg.Fatal("register jobs", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Email.Delivery == "queue" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, lg)
		defer consumer.Close()

		go func() {
			if err := consumer.Consume(ctx, worker.EmailHandler(smtp, worker.EmailRetryFromConfig(cfg.Worker), lg)); err != nil {
				// Uncommitted messages are redelivered after restart.
				lg.Error("email consumer stopped", zap.Error(err))
				cancel()
			}
		}()
	}

	lg.Info("worker started",
		zap.String("refund_schedule", cfg.Worker.RefundRetrySchedule),
		zap.String("expiration_schedule", cfg.Worker.ExpirationSchedule),
		zap.String("email_delivery", cfg.Email.Delivery))

	<-ctx.Done()
	lg.Info("shutting down worker")
}
