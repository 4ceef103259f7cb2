package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	cartdomain "github.com/Hasin-ai/E-commerce-sub001/internal/cart/domain"
	invservice "github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
	orderdomain "github.com/Hasin-ai/E-commerce-sub001/internal/order/domain"
	paymentdomain "github.com/Hasin-ai/E-commerce-sub001/internal/payment/domain"
	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/gateway"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
)

// In-memory fakes standing in for the context services. They enforce the
// same domain transitions as the real services, just without postgres.

type fakeCarts struct {
	mu      sync.Mutex
	carts   map[int64]*cartdomain.Cart
	cleared []int64
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: map[int64]*cartdomain.Cart{}}
}

func (f *fakeCarts) put(cart *cartdomain.Cart) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[cart.UserID] = cart
}

func (f *fakeCarts) GetCart(_ context.Context, userID int64) (*cartdomain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "no cart for user %d", userID)
	}
	return cart, nil
}

func (f *fakeCarts) ClearCart(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cart, ok := f.carts[userID]; ok {
		cart.Clear()
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*orderdomain.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[int64]*orderdomain.Order{}}
}

func (f *fakeOrders) CreateOrder(_ context.Context, order *orderdomain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID int64) (*orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "order %d not found", orderID)
	}
	return order, nil
}

func (f *fakeOrders) Confirm(_ context.Context, orderID int64) (*orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := f.orders[orderID]
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	return order, nil
}

func (f *fakeOrders) Cancel(_ context.Context, orderID int64, reason string) (*orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := f.orders[orderID]
	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	return order, nil
}

type fakePayments struct {
	mu       sync.Mutex
	nextID   int64
	payments map[int64]*paymentdomain.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{payments: map[int64]*paymentdomain.Payment{}}
}

func (f *fakePayments) CreatePayment(_ context.Context, orderID int64, amount money.Money, method string) (*paymentdomain.Payment, error) {
	payment, err := paymentdomain.NewPayment(orderID, amount, method)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	payment.ID = f.nextID
	f.payments[payment.ID] = payment
	return payment, nil
}

func (f *fakePayments) UpdatePayment(_ context.Context, payment *paymentdomain.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakePayments) TransitionByIntent(_ context.Context, intentID string, apply func(*paymentdomain.Payment) error) (*paymentdomain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.PaymentIntentID != nil && *payment.PaymentIntentID == intentID {
			if err := apply(payment); err != nil {
				return nil, err
			}
			return payment, nil
		}
	}
	return nil, apperr.Newf(apperr.KindNotFound, "no payment for intent %s", intentID)
}

func (f *fakePayments) byOrder(orderID int64) *paymentdomain.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.OrderID == orderID {
			return payment
		}
	}
	return nil
}

type stockState struct {
	quantity int32
	reserved int32
}

type fakeInventory struct {
	mu       sync.Mutex
	stock    map[int64]*stockState
	settled  map[string]string // reference -> "committed" | "released"
	reserved map[string][]invservice.ReservationLine
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		stock:    map[int64]*stockState{},
		settled:  map[string]string{},
		reserved: map[string][]invservice.ReservationLine{},
	}
}

func (f *fakeInventory) put(productID int64, quantity int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[productID] = &stockState{quantity: quantity}
}

func (f *fakeInventory) state(productID int64) stockState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.stock[productID]
}

func (f *fakeInventory) Reserve(_ context.Context, reference string, lines []invservice.ReservationLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range lines {
		st, ok := f.stock[line.ProductID]
		if !ok {
			return apperr.Newf(apperr.KindNotFound, "no inventory for product %d", line.ProductID)
		}
		if st.quantity-st.reserved < line.Quantity {
			return apperr.Newf(apperr.KindInsufficientStock,
				"insufficient stock for product %d", line.ProductID)
		}
	}
	for _, line := range lines {
		f.stock[line.ProductID].reserved += line.Quantity
	}
	f.reserved[reference] = lines
	return nil
}

func (f *fakeInventory) Release(_ context.Context, reference string, lines []invservice.ReservationLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled[reference] != "" {
		return nil
	}
	for _, line := range lines {
		f.stock[line.ProductID].reserved -= line.Quantity
	}
	f.settled[reference] = "released"
	return nil
}

func (f *fakeInventory) Commit(_ context.Context, reference string, lines []invservice.ReservationLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled[reference] != "" {
		return nil
	}
	for _, line := range lines {
		st := f.stock[line.ProductID]
		st.quantity -= line.Quantity
		st.reserved -= line.Quantity
	}
	f.settled[reference] = "committed"
	return nil
}

// scriptedGateway answers with a fixed response or error per call.
type scriptedGateway struct {
	mu        sync.Mutex
	responses []gateway.ChargeResponse
	errs      []error
	calls     int
	keys      []string
}

func (g *scriptedGateway) Submit(_ context.Context, req gateway.ChargeRequest) (gateway.ChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.calls
	g.calls++
	g.keys = append(g.keys, req.IdempotencyKey)
	if idx < len(g.errs) && g.errs[idx] != nil {
		return gateway.ChargeResponse{}, g.errs[idx]
	}
	if idx < len(g.responses) {
		return g.responses[idx], nil
	}
	return gateway.ChargeResponse{}, fmt.Errorf("no scripted response for call %d", idx)
}

func (g *scriptedGateway) Refund(_ context.Context, _ gateway.RefundRequest) (gateway.RefundResponse, error) {
	return gateway.RefundResponse{Status: gateway.StatusSucceeded}, nil
}
