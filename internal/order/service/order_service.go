package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/internal/order/domain"
	"github.com/Hasin-ai/E-commerce-sub001/internal/order/repository"
	pkgdomain "github.com/Hasin-ai/E-commerce-sub001/pkg/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	outboxdomain "github.com/Hasin-ai/E-commerce-sub001/pkg/outbox/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/outbox/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	TopicOrderConfirmed = "orders.confirmed"
	TopicOrderCancelled = "orders.cancelled"
)

type OrderService struct {
	pool       *pgxpool.Pool
	orderRepo  repository.OrderRepository
	outboxRepo worker.OutboxRepository
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewOrderService(
	pool *pgxpool.Pool,
	orderRepo repository.OrderRepository,
	outboxRepo worker.OutboxRepository,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		pool:       pool,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
		tracer:     otel.Tracer("order_service"),
	}
}

// CreateOrder persists a freshly built PENDING order. This is the checkout
// durability checkpoint: once committed the workflow is auditable even if
// the process dies before payment.
func (s *OrderService) CreateOrder(ctx context.Context, order *domain.Order) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_number", order.OrderNumber),
		attribute.Int64("user_id", order.UserID),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := s.orderRepo.Save(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
	)

	return nil
}

// Confirm flips a pending order to CONFIRMED and queues the confirmation
// event atomically with the status change.
func (s *OrderService) Confirm(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, "OrderService.Confirm", orderID, func(order *domain.Order) error {
		return order.Confirm()
	}, func(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
		return s.EmitConfirmed(ctx, tx, order)
	})
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "order %d not found", orderID)
		}
		return nil, err
	}

	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	return s.orderRepo.FindByUserID(ctx, userID)
}

// Ship moves a confirmed order into fulfillment.
func (s *OrderService) Ship(ctx context.Context, orderID int64, trackingNumber string) (*domain.Order, error) {
	return s.transition(ctx, "OrderService.Ship", orderID, func(order *domain.Order) error {
		return order.Ship(trackingNumber)
	}, nil)
}

func (s *OrderService) Deliver(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, "OrderService.Deliver", orderID, func(order *domain.Order) error {
		return order.Deliver()
	}, nil)
}

// Cancel rejects shipped and delivered orders; the cancellation event goes
// out through the outbox in the same transaction as the status change.
func (s *OrderService) Cancel(ctx context.Context, orderID int64, reason string) (*domain.Order, error) {
	return s.transition(ctx, "OrderService.Cancel", orderID, func(order *domain.Order) error {
		return order.Cancel(reason)
	}, func(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
		return s.EmitCancelled(ctx, tx, order)
	})
}

func (s *OrderService) transition(
	ctx context.Context,
	spanName string,
	orderID int64,
	apply func(*domain.Order) error,
	after func(context.Context, pgx.Tx, *domain.Order) error,
) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to begin transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "order %d not found", orderID)
		}
		return nil, err
	}

	if err := apply(order); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(ctx, tx, order); err != nil {
		return nil, err
	}

	if after != nil {
		if err := after(ctx, tx, order); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order status changed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
	)

	return order, nil
}

// EmitConfirmed writes the confirmation event into the outbox inside the
// caller's transaction. The checkout orchestrator calls it when it flips the
// order to CONFIRMED.
func (s *OrderService) EmitConfirmed(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	event := pkgdomain.OrderConfirmedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.TotalAmount.Amount().String(),
		Currency:    order.Currency,
		ConfirmedAt: time.Now(),
	}

	return s.emit(ctx, tx, order, "OrderConfirmed", TopicOrderConfirmed, event)
}

func (s *OrderService) EmitCancelled(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	event := pkgdomain.OrderCancelledEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Reason:      order.CancelReason,
		CancelledAt: time.Now(),
	}

	return s.emit(ctx, tx, order, "OrderCancelled", TopicOrderCancelled, event)
}

func (s *OrderService) emit(ctx context.Context, tx pgx.Tx, order *domain.Order, eventType, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	return s.outboxRepo.SaveOutboxEvent(ctx, tx, &outboxdomain.OutboxEvent{
		AggregateType: "order",
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     eventType,
		Payload:       payload,
		Topic:         topic,
	})
}
