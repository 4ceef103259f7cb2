package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	invservice "github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
	orderdomain "github.com/Hasin-ai/E-commerce-sub001/internal/order/domain"
	paymentdomain "github.com/Hasin-ai/E-commerce-sub001/internal/payment/domain"
	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/gateway"
)

func newReconcilerFixture(gw *scriptedGateway) (*fixture, *Reconciler) {
	f := newFixture(gw)
	r := NewReconciler(f.orders, f.payments, f.inventory, f.carts, zap.NewNop())
	return f, r
}

// runs a checkout that parks in REQUIRES_ACTION, returning the order id
func parkedCheckout(t *testing.T, f *fixture) int64 {
	t.Helper()

	result, err := f.svc.Checkout(context.Background(), checkoutRequest(7))
	require.NoError(t, err)
	require.Equal(t, StatusRequiresAction, result.Status)
	return result.OrderID
}

func TestReconcilerCompletesParkedCheckout(t *testing.T) {
	f, r := newReconcilerFixture(&scriptedGateway{responses: []gateway.ChargeResponse{
		{PaymentIntentID: "pi_3ds", Status: gateway.StatusRequiresAction},
	}})
	f.seedCart(t, 7)
	orderID := parkedCheckout(t, f)

	err := r.Handle(context.Background(), WebhookEvent{
		EventType:       "payment_intent.succeeded",
		PaymentIntentID: "pi_3ds",
		GatewayStatus:   "succeeded",
	})
	require.NoError(t, err)

	order, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)

	payment := f.payments.byOrder(orderID)
	assert.Equal(t, paymentdomain.StatusCompleted, payment.Status)

	assert.Equal(t, stockState{quantity: 3, reserved: 0}, f.inventory.state(10))
	assert.Equal(t, stockState{quantity: 4, reserved: 0}, f.inventory.state(20))

	cart, err := f.carts.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestReconcilerDuplicateSuccessIsIdempotent(t *testing.T) {
	f, r := newReconcilerFixture(&scriptedGateway{responses: []gateway.ChargeResponse{
		{PaymentIntentID: "pi_3ds", Status: gateway.StatusRequiresAction},
	}})
	f.seedCart(t, 7)
	orderID := parkedCheckout(t, f)

	event := WebhookEvent{
		EventType:       "payment_intent.succeeded",
		PaymentIntentID: "pi_3ds",
		GatewayStatus:   "succeeded",
	}
	require.NoError(t, r.Handle(context.Background(), event))
	require.NoError(t, r.Handle(context.Background(), event))

	// stock decremented exactly once
	assert.Equal(t, stockState{quantity: 3, reserved: 0}, f.inventory.state(10))
	assert.Equal(t, stockState{quantity: 4, reserved: 0}, f.inventory.state(20))

	order, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)
}

func TestReconcilerFailureCancelsOrder(t *testing.T) {
	f, r := newReconcilerFixture(&scriptedGateway{responses: []gateway.ChargeResponse{
		{PaymentIntentID: "pi_3ds", Status: gateway.StatusRequiresAction},
	}})
	f.seedCart(t, 7)
	orderID := parkedCheckout(t, f)

	err := r.Handle(context.Background(), WebhookEvent{
		EventType:       "payment_intent.payment_failed",
		PaymentIntentID: "pi_3ds",
		GatewayStatus:   "failed",
	})
	require.NoError(t, err)

	order, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCancelled, order.Status)

	payment := f.payments.byOrder(orderID)
	assert.Equal(t, paymentdomain.StatusFailed, payment.Status)

	assert.Equal(t, stockState{quantity: 5, reserved: 0}, f.inventory.state(10))

	// cart untouched on failure
	cart, err := f.carts.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

// A gateway timeout compensates the checkout synchronously. When a delayed
// success webhook for the same intent arrives later, local terminal state
// wins: no re-confirm, no double stock commit.
func TestReconcilerLateSuccessAfterCompensationIsNoOp(t *testing.T) {
	f, r := newReconcilerFixture(&scriptedGateway{responses: []gateway.ChargeResponse{
		{PaymentIntentID: "pi_slow", Status: gateway.StatusDeclined, Message: "card declined"},
	}})
	f.seedCart(t, 7)

	result, err := f.svc.Checkout(context.Background(), checkoutRequest(7))
	require.Error(t, err)
	orderID := result.OrderID

	err = r.Handle(context.Background(), WebhookEvent{
		EventType:       "payment_intent.succeeded",
		PaymentIntentID: "pi_slow",
		GatewayStatus:   "succeeded",
	})
	require.NoError(t, err)

	order, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCancelled, order.Status)

	payment := f.payments.byOrder(orderID)
	assert.Equal(t, paymentdomain.StatusFailed, payment.Status)

	// reservation was released during compensation; nothing committed since
	assert.Equal(t, stockState{quantity: 5, reserved: 0}, f.inventory.state(10))
	assert.Equal(t, stockState{quantity: 5, reserved: 0}, f.inventory.state(20))
}

// flakyInventory fails a scripted number of calls before delegating, to
// simulate transient store errors between the reconciler's steps.
type flakyInventory struct {
	*fakeInventory
	failCommits  int
	failReleases int
}

func (f *flakyInventory) Commit(ctx context.Context, reference string, lines []invservice.ReservationLine) error {
	if f.failCommits > 0 {
		f.failCommits--
		return errors.New("store unavailable")
	}
	return f.fakeInventory.Commit(ctx, reference, lines)
}

func (f *flakyInventory) Release(ctx context.Context, reference string, lines []invservice.ReservationLine) error {
	if f.failReleases > 0 {
		f.failReleases--
		return errors.New("store unavailable")
	}
	return f.fakeInventory.Release(ctx, reference, lines)
}

// First delivery flips the payment COMPLETED but dies on the inventory
// commit. The redelivery must pick up where it left off instead of treating
// the terminal payment as a conflict, or the holds stay stuck forever.
func TestReconcilerRedeliveryFinishesPartialSuccess(t *testing.T) {
	f, _ := newReconcilerFixture(&scriptedGateway{responses: []gateway.ChargeResponse{
		{PaymentIntentID: "pi_3ds", Status: gateway.StatusRequiresAction},
	}})
	f.seedCart(t, 7)
	orderID := parkedCheckout(t, f)

	inventory := &flakyInventory{fakeInventory: f.inventory, failCommits: 1}
	r := NewReconciler(f.orders, f.payments, inventory, f.carts, zap.NewNop())

	event := WebhookEvent{
		EventType:       "payment_intent.succeeded",
		PaymentIntentID: "pi_3ds",
		GatewayStatus:   "succeeded",
	}
	require.Error(t, r.Handle(context.Background(), event))

	payment := f.payments.byOrder(orderID)
	require.Equal(t, paymentdomain.StatusCompleted, payment.Status)
	require.Equal(t, stockState{quantity: 5, reserved: 2}, f.inventory.state(10))

	require.NoError(t, r.Handle(context.Background(), event))

	order, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)

	assert.Equal(t, stockState{quantity: 3, reserved: 0}, f.inventory.state(10))
	assert.Equal(t, stockState{quantity: 4, reserved: 0}, f.inventory.state(20))

	cart, err := f.carts.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestReconcilerRedeliveryFinishesPartialFailure(t *testing.T) {
	f, _ := newReconcilerFixture(&scriptedGateway{responses: []gateway.ChargeResponse{
		{PaymentIntentID: "pi_3ds", Status: gateway.StatusRequiresAction},
	}})
	f.seedCart(t, 7)
	orderID := parkedCheckout(t, f)

	inventory := &flakyInventory{fakeInventory: f.inventory, failReleases: 1}
	r := NewReconciler(f.orders, f.payments, inventory, f.carts, zap.NewNop())

	event := WebhookEvent{
		EventType:       "payment_intent.payment_failed",
		PaymentIntentID: "pi_3ds",
		GatewayStatus:   "failed",
	}
	require.Error(t, r.Handle(context.Background(), event))

	payment := f.payments.byOrder(orderID)
	require.Equal(t, paymentdomain.StatusFailed, payment.Status)
	require.Equal(t, stockState{quantity: 5, reserved: 2}, f.inventory.state(10))

	require.NoError(t, r.Handle(context.Background(), event))

	order, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusCancelled, order.Status)

	assert.Equal(t, stockState{quantity: 5, reserved: 0}, f.inventory.state(10))
	assert.Equal(t, stockState{quantity: 5, reserved: 0}, f.inventory.state(20))
}

func TestReconcilerUnknownIntentIgnored(t *testing.T) {
	_, r := newReconcilerFixture(&scriptedGateway{})

	err := r.Handle(context.Background(), WebhookEvent{
		EventType:       "payment_intent.succeeded",
		PaymentIntentID: "pi_ghost",
		GatewayStatus:   "succeeded",
	})
	assert.NoError(t, err)
}

func TestReconcilerUnknownEventTypeIgnored(t *testing.T) {
	_, r := newReconcilerFixture(&scriptedGateway{})

	err := r.Handle(context.Background(), WebhookEvent{
		EventType:       "charge.dispute.created",
		PaymentIntentID: "pi_1",
		GatewayStatus:   "disputed",
	})
	assert.NoError(t, err)
}
