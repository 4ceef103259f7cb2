package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Hasin-ai/E-commerce-sub001/internal/notification/service"
	orderservice "github.com/Hasin-ai/E-commerce-sub001/internal/order/service"
	paymentservice "github.com/Hasin-ai/E-commerce-sub001/internal/payment/service"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/kafka"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
)

type Consumer struct {
	service *service.NotificationService
	logger  *zap.Logger
}

func NewConsumer(service *service.NotificationService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"notification-group",
		[]string{
			orderservice.TopicOrderConfirmed,
			orderservice.TopicOrderCancelled,
			paymentservice.TopicPaymentRefunded,
		},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	switch msg.Topic {
	case orderservice.TopicOrderConfirmed:
		var event domain.OrderConfirmedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Error parsing order confirmed event", zap.Error(err))
			return nil
		}
		return c.service.HandleOrderConfirmed(ctx, event)
	case orderservice.TopicOrderCancelled:
		var event domain.OrderCancelledEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Error parsing order cancelled event", zap.Error(err))
			return nil
		}
		return c.service.HandleOrderCancelled(ctx, event)
	case paymentservice.TopicPaymentRefunded:
		var event domain.PaymentRefundedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Error parsing payment refunded event", zap.Error(err))
			return nil
		}
		return c.service.HandlePaymentRefunded(ctx, event)
	default:
		mylogger.Warn(ctx, c.logger, "Unknown topic", zap.String("topic", msg.Topic))
		return nil
	}
}
