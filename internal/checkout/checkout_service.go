package checkout

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	cartdomain "github.com/Hasin-ai/E-commerce-sub001/internal/cart/domain"
	invservice "github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
	orderdomain "github.com/Hasin-ai/E-commerce-sub001/internal/order/domain"
	paymentdomain "github.com/Hasin-ai/E-commerce-sub001/internal/payment/domain"
	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/gateway"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
)

// Result statuses returned to the caller.
const (
	StatusConfirmed      = "confirmed"
	StatusFailed         = "failed"
	StatusRequiresAction = "requires_action"
)

type CheckoutRequest struct {
	UserID          int64
	ShippingAddress orderdomain.Address
	BillingAddress  orderdomain.Address
	PaymentMethod   string
	PaymentToken    string
	CustomerID      string
}

type CheckoutResult struct {
	OrderID   int64
	PaymentID int64
	Status    string
	Message   string
}

// Narrow views over the context services, so the workflow can be exercised
// against fakes.

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, userID int64) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, order *orderdomain.Order) error
	GetOrder(ctx context.Context, orderID int64) (*orderdomain.Order, error)
	Confirm(ctx context.Context, orderID int64) (*orderdomain.Order, error)
	Cancel(ctx context.Context, orderID int64, reason string) (*orderdomain.Order, error)
}

type PaymentService interface {
	CreatePayment(ctx context.Context, orderID int64, amount money.Money, paymentMethod string) (*paymentdomain.Payment, error)
	UpdatePayment(ctx context.Context, payment *paymentdomain.Payment) error
	TransitionByIntent(ctx context.Context, intentID string, apply func(*paymentdomain.Payment) error) (*paymentdomain.Payment, error)
}

type InventoryService interface {
	Reserve(ctx context.Context, reference string, lines []invservice.ReservationLine) error
	Release(ctx context.Context, reference string, lines []invservice.ReservationLine) error
	Commit(ctx context.Context, reference string, lines []invservice.ReservationLine) error
}

// CheckoutService runs the checkout workflow: snapshot the cart into an
// order, hold inventory, charge the gateway, then commit or compensate.
// Every local write is its own transaction; the gateway call never runs
// inside one.
type CheckoutService struct {
	carts     CartService
	orders    OrderService
	payments  PaymentService
	inventory InventoryService
	gw        gateway.Gateway
	logger    *zap.Logger
	tracer    trace.Tracer
}

func NewCheckoutService(
	carts CartService,
	orders OrderService,
	payments PaymentService,
	inventory InventoryService,
	gw gateway.Gateway,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		orders:    orders,
		payments:  payments,
		inventory: inventory,
		gw:        gw,
		logger:    logger,
		tracer:    otel.Tracer("checkout_service"),
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.Checkout")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
		attribute.String("payment_method", req.PaymentMethod),
	)

	cart, err := s.carts.GetCart(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "cannot checkout empty cart")
	}

	order, err := orderdomain.NewFromCart(cart, req.ShippingAddress, req.BillingAddress)
	if err != nil {
		return nil, err
	}

	// durability checkpoint: from here the workflow always ends in a
	// persisted terminal order status
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	reference := OrderReference(order.ID)
	lines := reservationLines(order)

	if err := s.inventory.Reserve(ctx, reference, lines); err != nil {
		if cancelErr := s.cancelOrder(ctx, order.ID, "insufficient stock"); cancelErr != nil {
			mylogger.Error(ctx, s.logger, "Failed to cancel order after reservation failure",
				zap.Int64("order_id", order.ID), zap.Error(cancelErr))
		}
		return nil, err
	}

	payment, err := s.payments.CreatePayment(ctx, order.ID, order.TotalAmount, req.PaymentMethod)
	if err != nil {
		s.compensate(ctx, order.ID, reference, lines, "payment setup failed")
		return nil, err
	}

	if err := payment.MarkAsProcessing(); err != nil {
		return nil, err
	}
	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		s.compensate(ctx, order.ID, reference, lines, "payment setup failed")
		return nil, err
	}

	resp, err := s.gw.Submit(ctx, gateway.ChargeRequest{
		IdempotencyKey: fmt.Sprintf("checkout-%d-%d", order.ID, payment.ID),
		Amount:         order.TotalAmount,
		PaymentMethod:  req.PaymentMethod,
		PaymentToken:   req.PaymentToken,
		CustomerID:     req.CustomerID,
	})
	if err != nil {
		// timeouts and transport failures compensate now; a delayed
		// success webhook is reconciled later and must find terminal state
		return s.failCheckout(ctx, order.ID, payment, reference, lines, "payment gateway unavailable")
	}

	if resp.PaymentIntentID != "" {
		if err := payment.AttachIntent(resp.PaymentIntentID); err != nil {
			return nil, err
		}
	}

	switch resp.Status {
	case gateway.StatusSucceeded:
		return s.completeCheckout(ctx, req.UserID, order, payment, reference, lines)
	case gateway.StatusRequiresAction:
		return s.holdForAction(ctx, order, payment)
	default:
		return s.failCheckout(ctx, order.ID, payment, reference, lines, resp.Message)
	}
}

func (s *CheckoutService) completeCheckout(
	ctx context.Context,
	userID int64,
	order *orderdomain.Order,
	payment *paymentdomain.Payment,
	reference string,
	lines []invservice.ReservationLine,
) (*CheckoutResult, error) {
	if err := payment.MarkAsCompleted(); err != nil {
		return nil, err
	}
	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	if _, err := s.orders.Confirm(ctx, order.ID); err != nil {
		return nil, err
	}

	if err := s.inventory.Commit(ctx, reference, lines); err != nil {
		return nil, err
	}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		mylogger.Warn(ctx, s.logger, "Failed to clear cart after checkout",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Checkout completed",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", payment.ID),
		zap.String("order_number", order.OrderNumber),
	)

	return &CheckoutResult{
		OrderID:   order.ID,
		PaymentID: payment.ID,
		Status:    StatusConfirmed,
	}, nil
}

// holdForAction leaves the order PENDING and the reservation in place; the
// webhook reconciler settles the checkout once the customer finishes the
// gateway challenge.
func (s *CheckoutService) holdForAction(ctx context.Context, order *orderdomain.Order, payment *paymentdomain.Payment) (*CheckoutResult, error) {
	if err := payment.MarkAsRequiresAction(); err != nil {
		return nil, err
	}
	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Checkout awaiting customer action",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", payment.ID),
	)

	return &CheckoutResult{
		OrderID:   order.ID,
		PaymentID: payment.ID,
		Status:    StatusRequiresAction,
		Message:   "additional authentication required",
	}, nil
}

// failCheckout records the payment failure and unwinds order and inventory.
// The cart is left untouched so the customer can retry.
func (s *CheckoutService) failCheckout(
	ctx context.Context,
	orderID int64,
	payment *paymentdomain.Payment,
	reference string,
	lines []invservice.ReservationLine,
	reason string,
) (*CheckoutResult, error) {
	if err := payment.MarkAsFailed(reason); err != nil {
		return nil, err
	}
	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.compensate(ctx, orderID, reference, lines, reason)

	mylogger.Warn(
		ctx,
		s.logger,
		"Checkout failed",
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", payment.ID),
		zap.String("reason", reason),
	)

	return &CheckoutResult{
		OrderID:   orderID,
		PaymentID: payment.ID,
		Status:    StatusFailed,
		Message:   reason,
	}, apperr.Newf(apperr.KindGateway, "payment failed: %s", reason)
}

func (s *CheckoutService) compensate(ctx context.Context, orderID int64, reference string, lines []invservice.ReservationLine, reason string) {
	if err := s.cancelOrder(ctx, orderID, reason); err != nil {
		mylogger.Error(ctx, s.logger, "Compensation: failed to cancel order",
			zap.Int64("order_id", orderID), zap.Error(err))
	}

	if err := s.inventory.Release(ctx, reference, lines); err != nil {
		mylogger.Error(ctx, s.logger, "Compensation: failed to release inventory",
			zap.Int64("order_id", orderID), zap.Error(err))
	}
}

// cancelOrder tolerates the order already being cancelled, which happens
// when the reconciler raced us to the same conclusion.
func (s *CheckoutService) cancelOrder(ctx context.Context, orderID int64, reason string) error {
	_, err := s.orders.Cancel(ctx, orderID, reason)
	if err != nil && apperr.IsKind(err, apperr.KindInvalidTransition) {
		return nil
	}
	return err
}

// OrderReference is the inventory movement reference tying a checkout's
// reservations, releases and stock-out records to one order.
func OrderReference(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

func reservationLines(order *orderdomain.Order) []invservice.ReservationLine {
	lines := make([]invservice.ReservationLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, invservice.ReservationLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return lines
}
