package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	orderrepo "github.com/Hasin-ai/E-commerce-sub001/internal/order/repository"
	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/domain"
	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/gateway"
	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/repository"
	pkgdomain "github.com/Hasin-ai/E-commerce-sub001/pkg/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
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

const TopicPaymentRefunded = "payments.refunded"

type PaymentService struct {
	pool        *pgxpool.Pool
	paymentRepo repository.PaymentRepository
	orderRepo   orderrepo.OrderRepository
	outboxRepo  worker.OutboxRepository
	gw          gateway.Gateway
	logger      *zap.Logger
	tracer      trace.Tracer
}

func NewPaymentService(
	pool *pgxpool.Pool,
	paymentRepo repository.PaymentRepository,
	orderRepo orderrepo.OrderRepository,
	outboxRepo worker.OutboxRepository,
	gw gateway.Gateway,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		pool:        pool,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		outboxRepo:  outboxRepo,
		gw:          gw,
		logger:      logger,
		tracer:      otel.Tracer("payment_service"),
	}
}

// CreatePayment persists a fresh PENDING payment for the order.
func (s *PaymentService) CreatePayment(ctx context.Context, orderID int64, amount money.Money, paymentMethod string) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.CreatePayment")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	payment, err := domain.NewPayment(orderID, amount, paymentMethod)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		return s.paymentRepo.Save(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Payment created",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("order_id", orderID),
		zap.String("payment_reference", payment.PaymentReference),
	)

	return payment, nil
}

// UpdatePayment writes an already-transitioned payment back in its own
// transaction. The caller owns the state machine call.
func (s *PaymentService) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	ctx, span := s.tracer.Start(ctx, "PaymentService.UpdatePayment")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", payment.ID),
		attribute.String("status", string(payment.Status)),
	)

	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.paymentRepo.Update(ctx, tx, payment)
	})
}

// TransitionByIntent looks up a payment by gateway intent, applies a state
// transition under the row lock and persists it. The apply callback sees the
// current row, so status checks inside it are race free against concurrent
// webhook deliveries.
func (s *PaymentService) TransitionByIntent(ctx context.Context, intentID string, apply func(*domain.Payment) error) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.TransitionByIntent")
	defer span.End()

	span.SetAttributes(
		attribute.String("payment_intent_id", intentID),
	)

	var payment *domain.Payment
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.paymentRepo.FindByIntentIDForUpdate(ctx, tx, intentID)
		if err != nil {
			if errors.Is(err, repository.ErrPaymentNotFound) {
				return apperr.Newf(apperr.KindNotFound, "no payment for intent %s", intentID)
			}
			return err
		}

		if err := apply(locked); err != nil {
			return err
		}

		if err := s.paymentRepo.Update(ctx, tx, locked); err != nil {
			return err
		}

		payment = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (s *PaymentService) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetByIntentID")
	defer span.End()

	span.SetAttributes(
		attribute.String("payment_intent_id", intentID),
	)

	var payment *domain.Payment
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		found, err := s.paymentRepo.FindByIntentIDForUpdate(ctx, tx, intentID)
		if err != nil {
			return err
		}
		payment = found
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "no payment for intent %s", intentID)
		}
		return nil, err
	}

	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetPayment")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", paymentID),
	)

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "payment %d not found", paymentID)
		}
		return nil, err
	}

	return payment, nil
}

func (s *PaymentService) GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetByOrderID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	payment, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "no payment for order %d", orderID)
		}
		return nil, err
	}

	return payment, nil
}

// Refund refunds part or all of a completed payment. The gateway call runs
// before the local transaction; the refund row, payment status and outbox
// event then commit atomically.
func (s *PaymentService) Refund(ctx context.Context, paymentID int64, amount money.Money, reason string) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Refund")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", paymentID),
		attribute.String("amount", amount.String()),
	)

	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	// dry run against a copy so gateway money only moves for a refund that
	// the domain will accept
	probe := *payment
	probe.Refunds = append([]domain.Refund(nil), payment.Refunds...)
	if _, err := probe.Refund(amount, reason, ""); err != nil {
		return nil, err
	}

	if payment.PaymentIntentID == nil {
		return nil, apperr.Newf(apperr.KindConflict,
			"payment %s has no gateway intent to refund against", payment.PaymentReference)
	}

	resp, err := s.gw.Refund(ctx, gateway.RefundRequest{
		PaymentIntentID: *payment.PaymentIntentID,
		Amount:          amount,
		Reason:          reason,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindGateway, "gateway refund failed", err)
	}
	if resp.Status != gateway.StatusSucceeded {
		return nil, apperr.Newf(apperr.KindGateway, "gateway rejected refund: %s", resp.Message)
	}

	order, err := s.orderRepo.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	var locked *domain.Payment
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := s.paymentRepo.FindByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		refund, err := current.Refund(amount, reason, resp.RefundID)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.SaveRefund(ctx, tx, &refund); err != nil {
			return err
		}
		if err := s.paymentRepo.Update(ctx, tx, current); err != nil {
			return err
		}

		event := pkgdomain.PaymentRefundedEvent{
			PaymentID:  current.ID,
			OrderID:    current.OrderID,
			UserID:     order.UserID,
			Amount:     amount.Amount().String(),
			Currency:   amount.Currency(),
			RefundedAt: time.Now(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal refund event: %w", err)
		}

		if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, &outboxdomain.OutboxEvent{
			AggregateType: "payment",
			AggregateID:   strconv.FormatInt(current.ID, 10),
			EventType:     "PaymentRefunded",
			Payload:       payload,
			Topic:         TopicPaymentRefunded,
		}); err != nil {
			return err
		}

		locked = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Payment refunded",
		zap.Int64("payment_id", locked.ID),
		zap.String("amount", amount.String()),
		zap.String("gateway_refund_id", resp.RefundID),
	)

	return locked, nil
}

func (s *PaymentService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
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

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
