// Package worker holds the background jobs run by cmd/worker: scheduled booking reconciliation and
// delivery of queued emails.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/email"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// jobTimeout bounds a single scheduled run.
const jobTimeout = 5 * time.Minute

type Reconciler interface {
	RetryRefunds(ctx context.Context, limit int) (booking.RefundReport, error)
	ExpirePendingBookings(ctx context.Context, olderThan time.Duration) (booking.ReconcileReport, error)
}

type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	cfg        config.Config
	logger     *zap.Logger
}

func NewScheduler(reconciler Reconciler, cfg config.Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		cfg:        cfg,
		logger:     logger.Named("scheduler"),
	}
}

// Register adds the refund retry and stale booking jobs. ctx is the parent of every run.
func (s *Scheduler) Register(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Worker.RefundRetrySchedule, func() { s.RetryRefunds(ctx) }); err != nil {
		return fmt.Errorf("schedule refund retry %q: %w", s.cfg.Worker.RefundRetrySchedule, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.Worker.ExpirationSchedule, func() { s.ExpirePending(ctx) }); err != nil {
		return fmt.Errorf("schedule expiration %q: %w", s.cfg.Worker.ExpirationSchedule, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) RetryRefunds(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	report, err := s.reconciler.RetryRefunds(ctx, s.cfg.Worker.RefundBatchSize)
	if err != nil {
		s.logger.Error("refund retry failed", zap.Error(err))
		return
	}
	if report.Attempted > 0 {
		s.logger.Info("refund retry finished",
			zap.Int("attempted", report.Attempted),
			zap.Int("refunded", report.Refunded),
			zap.Int("failed", report.Failed))
	}
}

func (s *Scheduler) ExpirePending(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	report, err := s.reconciler.ExpirePendingBookings(ctx, s.cfg.Booking.PendingHold())
	if err != nil {
		s.logger.Error("pending booking expiration failed", zap.Error(err))
		return
	}
	s.logger.Info("pending bookings reconciled",
		zap.Int("confirmed", report.Confirmed),
		zap.Int("cancelled", report.Cancelled),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
}

// EmailHandler delivers queued messages. Undecodable or invalid messages are dropped so they do not
// block the partition; delivery errors are returned and the offset is not committed.
// EmailRetry bounds how hard EmailHandler tries one message before handing the error to the consumer.
type EmailRetry struct {
	Attempts        int
	InitialInterval time.Duration
}

func EmailRetryFromConfig(cfg config.WorkerConfig) EmailRetry {
	return EmailRetry{Attempts: cfg.EmailSendAttempts, InitialInterval: cfg.EmailRetryInterval()}
}

func (r EmailRetry) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.MaxElapsedTime = 0
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// EmailHandler sends queued emails over SMTP, retrying with exponential backoff. An error is returned
// only after the retries are spent; the consumer then stops without committing the message.
func EmailHandler(sender email.Sender, retry EmailRetry, logger *zap.Logger) func(context.Context, kafkaGo.Message) error {
	log := logger.Named("email-consumer")
	return func(ctx context.Context, m kafkaGo.Message) error {
		var msg email.Message
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Error("drop undecodable email", zap.Int64("offset", m.Offset), zap.Error(err))
			return nil
		}
		if err := msg.Validate(); err != nil {
			log.Error("drop invalid email", zap.Int64("offset", m.Offset), zap.Error(err))
			return nil
		}

		attempt := 0
		send := func() error {
			attempt++
			err := sender.Send(ctx, msg)
			if err != nil {
				log.Warn("email send failed", zap.String("kind", string(msg.Kind)), zap.Int("attempt", attempt), zap.Error(err))
			}
			return err
		}
		if err := backoff.Retry(send, retry.backOff(ctx)); err != nil {
			return fmt.Errorf("send %s email after %d attempts: %w", msg.Kind, attempt, err)
		}
		log.Info("email sent", zap.String("kind", string(msg.Kind)), zap.String("to", msg.To))
		return nil
	}
}
