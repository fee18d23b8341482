package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Kind string

const (
	KindBookingConfirmation Kind = "booking_confirmation"
	KindPaymentReceipt      Kind = "payment_receipt"
)

// Message is a rendered email. It is also the payload of the notifications topic.
type Message struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (m Message) Validate() error {
	if m.To == "" {
		return errors.New("email recipient is empty")
	}
	if m.Subject == "" {
		return errors.New("email subject is empty")
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers synchronously through an SMTP relay.
type SMTPSender struct {
	from   string
	dialer dialer
	logger *zap.Logger
}

func NewSMTPSender(cfg config.EmailConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		logger: logger.Named("smtp"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s email: %w", msg.Kind, domain.NewDependencyError("smtp", err))
	}
	s.logger.Info("email sent", zap.String("kind", string(msg.Kind)), zap.String("subject", msg.Subject))
	return nil
}

type Publisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error
}

const queueAttempts = 3

// QueueSender hands the message to the worker through kafka.
type QueueSender struct {
	publisher Publisher
	topic     string
}

func NewQueueSender(publisher Publisher, topic string) *QueueSender {
	return &QueueSender{publisher: publisher, topic: topic}
}

func (q *QueueSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := q.publisher.PublishWithRetry(ctx, q.topic, msg.To, msg, queueAttempts); err != nil {
		return fmt.Errorf("queue %s email: %w", msg.Kind, domain.NewDependencyError("kafka", err))
	}
	return nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*QueueSender)(nil)
)
