package gateway

import (
	"context"

	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
)

// Status values reported by the gateway for a charge attempt.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusDeclined       Status = "declined"
	StatusRequiresAction Status = "requires_action"
)

type ChargeRequest struct {
	IdempotencyKey string
	Amount         money.Money
	PaymentMethod  string
	PaymentToken   string
	CustomerID     string
}

type ChargeResponse struct {
	PaymentIntentID string
	Status          Status
	Message         string
}

type RefundRequest struct {
	PaymentIntentID string
	Amount          money.Money
	Reason          string
}

type RefundResponse struct {
	RefundID string
	Status   Status
	Message  string
}

// Gateway is the outbound payment processor client. Submit declines are
// returned as a DECLINED response, not an error: errors mean the attempt
// outcome is unknown (timeout, transport failure, open breaker).
type Gateway interface {
	Submit(ctx context.Context, req ChargeRequest) (ChargeResponse, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResponse, error)
}
