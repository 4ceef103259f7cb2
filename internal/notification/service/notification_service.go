package service

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Hasin-ai/E-commerce-sub001/internal/notification/email"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/domain"
	outboxUtils "github.com/Hasin-ai/E-commerce-sub001/pkg/outbox/utils"
)

type NotificationService struct {
	emailSender email.Sender
	emailDomain string
	logger      *zap.Logger
	pool        *pgxpool.Pool
	tracer      trace.Tracer
}

func NewNotificationService(emailSender email.Sender, logger *zap.Logger, pool *pgxpool.Pool) *NotificationService {
	return &NotificationService{
		emailSender: emailSender,
		emailDomain: os.Getenv("NOTIFY_EMAIL_DOMAIN"),
		logger:      logger,
		pool:        pool,
		tracer:      otel.Tracer("notification-service"),
	}
}

func (s *NotificationService) HandleOrderConfirmed(ctx context.Context, event domain.OrderConfirmedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderConfirmed")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", event.EventID))

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, event.EventID, func() error {
		return s.emailSender.SendOrderConfirmation(
			ctx,
			s.recipient(event.UserID),
			event.OrderNumber,
			event.Total+" "+event.Currency,
		)
	})
}

func (s *NotificationService) HandleOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderCancelled")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", event.EventID))

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, event.EventID, func() error {
		return s.emailSender.SendOrderCancellation(
			ctx,
			s.recipient(event.UserID),
			event.OrderNumber,
			event.Reason,
		)
	})
}

func (s *NotificationService) HandlePaymentRefunded(ctx context.Context, event domain.PaymentRefundedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandlePaymentRefunded")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", event.EventID))

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, event.EventID, func() error {
		return s.emailSender.SendRefundNotice(
			ctx,
			s.recipient(event.UserID),
			event.Amount+" "+event.Currency,
		)
	})
}

// TODO: resolve the recipient address through the identity service once it
// exposes contact lookups; until then addresses are derived from user id.
func (s *NotificationService) recipient(userID int64) string {
	return fmt.Sprintf("user-%d@%s", userID, s.emailDomain)
}
