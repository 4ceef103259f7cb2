package checkout

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	invservice "github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
	orderdomain "github.com/Hasin-ai/E-commerce-sub001/internal/order/domain"
	paymentdomain "github.com/Hasin-ai/E-commerce-sub001/internal/payment/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
)

// WebhookEvent is a gateway callback after signature verification.
type WebhookEvent struct {
	EventType       string
	PaymentIntentID string
	GatewayStatus   string
	RawPayload      []byte
}

// Reconciler applies asynchronous gateway events onto locally held payment,
// order and inventory state. Deliveries are at-least-once: every path here
// is safe to run twice, and a payment already in a terminal state is
// authoritative over whatever the gateway says later.
type Reconciler struct {
	orders    OrderService
	payments  PaymentService
	inventory InventoryService
	carts     CartService
	logger    *zap.Logger
	tracer    trace.Tracer
}

func NewReconciler(
	orders OrderService,
	payments PaymentService,
	inventory InventoryService,
	carts CartService,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		orders:    orders,
		payments:  payments,
		inventory: inventory,
		carts:     carts,
		logger:    logger,
		tracer:    otel.Tracer("webhook_reconciler"),
	}
}

func (r *Reconciler) Handle(ctx context.Context, event WebhookEvent) error {
	ctx, span := r.tracer.Start(ctx, "Reconciler.Handle")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_type", event.EventType),
		attribute.String("payment_intent_id", event.PaymentIntentID),
		attribute.String("gateway_status", event.GatewayStatus),
	)

	switch event.EventType {
	case "payment_intent.succeeded":
		return r.applySuccess(ctx, event)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return r.applyFailure(ctx, event)
	default:
		// forward compatibility: new gateway event types must not break us
		mylogger.Info(
			ctx,
			r.logger,
			"Ignoring unknown webhook event type",
			zap.String("event_type", event.EventType),
		)
		return nil
	}
}

func (r *Reconciler) applySuccess(ctx context.Context, event WebhookEvent) error {
	var conflict bool
	payment, err := r.payments.TransitionByIntent(ctx, event.PaymentIntentID, func(p *paymentdomain.Payment) error {
		switch {
		case p.Status == paymentdomain.StatusCompleted:
			// redelivery after a partial apply: the payment already
			// flipped, keep going so the guarded confirm/commit below
			// can finish what the first delivery started
			return nil
		case p.Status.IsTerminal():
			conflict = true
			return nil
		default:
			return p.MarkAsCompleted()
		}
	})
	if err != nil {
		return r.tolerate(ctx, event, err)
	}
	if conflict {
		r.logConflict(ctx, event, payment)
		return nil
	}

	order, err := r.orders.GetOrder(ctx, payment.OrderID)
	if err != nil {
		return err
	}

	if _, err := r.orders.Confirm(ctx, order.ID); err != nil && !apperr.IsKind(err, apperr.KindInvalidTransition) {
		return err
	}

	// the movement log guard inside Commit makes a duplicate delivery a no-op
	if err := r.inventory.Commit(ctx, OrderReference(order.ID), orderLines(order)); err != nil {
		return err
	}

	if err := r.carts.ClearCart(ctx, order.UserID); err != nil {
		mylogger.Warn(ctx, r.logger, "Failed to clear cart after reconciliation",
			zap.Int64("user_id", order.UserID), zap.Error(err))
	}

	mylogger.Info(
		ctx,
		r.logger,
		"Reconciled payment success",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", payment.ID),
	)

	return nil
}

func (r *Reconciler) applyFailure(ctx context.Context, event WebhookEvent) error {
	cancelled := event.EventType == "payment_intent.canceled"

	var conflict bool
	payment, err := r.payments.TransitionByIntent(ctx, event.PaymentIntentID, func(p *paymentdomain.Payment) error {
		switch {
		case p.Status == paymentdomain.StatusFailed, p.Status == paymentdomain.StatusCancelled:
			// redelivery of a failure already applied: fall through so
			// cancel/release can complete a partially applied delivery
			return nil
		case p.Status.IsTerminal():
			conflict = true
			return nil
		default:
			if cancelled {
				return p.Cancel()
			}
			return p.MarkAsFailed("gateway reported " + event.GatewayStatus)
		}
	})
	if err != nil {
		return r.tolerate(ctx, event, err)
	}
	if conflict {
		r.logConflict(ctx, event, payment)
		return nil
	}

	order, err := r.orders.GetOrder(ctx, payment.OrderID)
	if err != nil {
		return err
	}

	if _, err := r.orders.Cancel(ctx, order.ID, "payment "+event.GatewayStatus); err != nil && !apperr.IsKind(err, apperr.KindInvalidTransition) {
		return err
	}

	if err := r.inventory.Release(ctx, OrderReference(order.ID), orderLines(order)); err != nil {
		return err
	}

	mylogger.Info(
		ctx,
		r.logger,
		"Reconciled payment failure",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", payment.ID),
	)

	return nil
}

// tolerate swallows events for payments this instance never created.
func (r *Reconciler) tolerate(ctx context.Context, event WebhookEvent, err error) error {
	if apperr.IsKind(err, apperr.KindNotFound) {
		mylogger.Info(
			ctx,
			r.logger,
			"Ignoring webhook for unknown payment intent",
			zap.String("payment_intent_id", event.PaymentIntentID),
		)
		return nil
	}
	return err
}

// logConflict records a late webhook that disagreed with terminal local
// state; local state wins.
func (r *Reconciler) logConflict(ctx context.Context, event WebhookEvent, payment *paymentdomain.Payment) {
	mylogger.Warn(
		ctx,
		r.logger,
		"Webhook arrived after payment settled locally, keeping local state",
		zap.String("event_type", event.EventType),
		zap.Int64("payment_id", payment.ID),
		zap.String("local_status", string(payment.Status)),
	)
}

func orderLines(order *orderdomain.Order) []invservice.ReservationLine {
	return reservationLines(order)
}
