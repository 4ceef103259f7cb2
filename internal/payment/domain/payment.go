package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
)

type PaymentStatus string

const (
	StatusPending        PaymentStatus = "PENDING"
	StatusProcessing     PaymentStatus = "PROCESSING"
	StatusRequiresAction PaymentStatus = "REQUIRES_ACTION"
	StatusCompleted      PaymentStatus = "COMPLETED"
	StatusFailed         PaymentStatus = "FAILED"
	StatusCancelled      PaymentStatus = "CANCELLED"
	StatusRefunded       PaymentStatus = "REFUNDED"
)

// IsTerminal reports whether a gateway event can no longer change this
// payment. Terminal state is authoritative against late webhooks.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "PENDING"
	RefundCompleted RefundStatus = "COMPLETED"
)

type Refund struct {
	ID            int64        `db:"id"`
	PaymentID     int64        `db:"payment_id"`
	Amount        money.Money  `db:"amount"`
	Reason        string       `db:"reason"`
	TransactionID string       `db:"transaction_id"`
	Status        RefundStatus `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
}

type Payment struct {
	ID               int64         `db:"id"`
	OrderID          int64         `db:"order_id"`
	PaymentReference string        `db:"payment_reference"`
	PaymentIntentID  *string       `db:"payment_intent_id"`
	Amount           money.Money   `db:"amount"`
	Status           PaymentStatus `db:"status"`
	PaymentMethod    string        `db:"payment_method"`
	ErrorMessage     string        `db:"error_message"`
	Refunds          []Refund      `db:"-"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

func NewPayment(orderID int64, amount money.Money, paymentMethod string) (*Payment, error) {
	if amount.IsZero() {
		return nil, apperr.New(apperr.KindValidation, "payment amount must be positive")
	}
	if paymentMethod == "" {
		return nil, apperr.New(apperr.KindValidation, "payment method is required")
	}

	now := time.Now()
	return &Payment{
		OrderID:          orderID,
		PaymentReference: newPaymentReference(),
		Amount:           amount,
		Status:           StatusPending,
		PaymentMethod:    paymentMethod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func newPaymentReference() string {
	return "PAY_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// AttachIntent stores the gateway correlation id. It may be set exactly once.
func (p *Payment) AttachIntent(intentID string) error {
	if intentID == "" {
		return apperr.New(apperr.KindValidation, "payment intent id must not be empty")
	}
	if p.PaymentIntentID != nil {
		return apperr.Newf(apperr.KindConflict,
			"payment %s already has intent %s", p.PaymentReference, *p.PaymentIntentID)
	}
	p.PaymentIntentID = &intentID
	p.touch()
	return nil
}

func (p *Payment) MarkAsProcessing() error {
	if p.Status != StatusPending {
		return p.transitionError(StatusProcessing)
	}
	p.setStatus(StatusProcessing)
	return nil
}

func (p *Payment) MarkAsRequiresAction() error {
	if p.Status != StatusProcessing {
		return p.transitionError(StatusRequiresAction)
	}
	p.setStatus(StatusRequiresAction)
	return nil
}

func (p *Payment) MarkAsCompleted() error {
	if p.Status != StatusProcessing && p.Status != StatusRequiresAction {
		return p.transitionError(StatusCompleted)
	}
	p.ErrorMessage = ""
	p.setStatus(StatusCompleted)
	return nil
}

func (p *Payment) MarkAsFailed(reason string) error {
	if p.Status.IsTerminal() {
		return p.transitionError(StatusFailed)
	}
	p.ErrorMessage = reason
	p.setStatus(StatusFailed)
	return nil
}

func (p *Payment) Cancel() error {
	if p.Status.IsTerminal() {
		return p.transitionError(StatusCancelled)
	}
	p.setStatus(StatusCancelled)
	return nil
}

// Refund records a partial or full refund against a completed payment,
// keyed by the gateway's refund transaction id. The payment flips to
// REFUNDED once the refunded total reaches the charge.
func (p *Payment) Refund(amount money.Money, reason, transactionID string) (Refund, error) {
	if p.Status != StatusCompleted {
		return Refund{}, apperr.Newf(apperr.KindInvalidTransition,
			"payment %s cannot be refunded from %s", p.PaymentReference, p.Status)
	}
	if amount.IsZero() {
		return Refund{}, apperr.New(apperr.KindValidation, "refund amount must be positive")
	}

	refunded, err := p.RefundedAmount()
	if err != nil {
		return Refund{}, err
	}
	remaining, err := p.Amount.Sub(refunded)
	if err != nil {
		return Refund{}, err
	}
	if cmp, err := amount.Cmp(remaining); err != nil {
		return Refund{}, err
	} else if cmp > 0 {
		return Refund{}, apperr.Newf(apperr.KindValidation,
			"refund of %s exceeds remaining refundable %s", amount, remaining)
	}

	refund := Refund{
		PaymentID:     p.ID,
		Amount:        amount,
		Reason:        reason,
		TransactionID: transactionID,
		Status:        RefundCompleted,
		CreatedAt:     time.Now(),
	}
	p.Refunds = append(p.Refunds, refund)

	if cmp, err := amount.Cmp(remaining); err == nil && cmp == 0 {
		p.setStatus(StatusRefunded)
	} else {
		p.touch()
	}

	return refund, nil
}

func (p *Payment) RefundedAmount() (money.Money, error) {
	total := money.Zero(p.Amount.Currency())
	for _, refund := range p.Refunds {
		sum, err := total.Add(refund.Amount)
		if err != nil {
			return money.Money{}, err
		}
		total = sum
	}
	return total, nil
}

func (p *Payment) setStatus(status PaymentStatus) {
	p.Status = status
	p.touch()
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
}

func (p *Payment) transitionError(target PaymentStatus) error {
	return apperr.New(apperr.KindInvalidTransition,
		fmt.Sprintf("payment %s cannot move from %s to %s", p.PaymentReference, p.Status, target))
}
