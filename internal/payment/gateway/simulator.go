package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Simulator is a local stand-in for a real payment processor. The payment
// token steers the outcome: "tok_declined" declines, "tok_3ds" demands a
// challenge, anything else succeeds.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) Submit(_ context.Context, req ChargeRequest) (ChargeResponse, error) {
	intentID := "pi_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	switch req.PaymentToken {
	case "tok_declined":
		return ChargeResponse{
			PaymentIntentID: intentID,
			Status:          StatusDeclined,
			Message:         "card declined",
		}, nil
	case "tok_3ds":
		return ChargeResponse{
			PaymentIntentID: intentID,
			Status:          StatusRequiresAction,
			Message:         "authentication required",
		}, nil
	default:
		return ChargeResponse{
			PaymentIntentID: intentID,
			Status:          StatusSucceeded,
		}, nil
	}
}

func (s *Simulator) Refund(_ context.Context, req RefundRequest) (RefundResponse, error) {
	return RefundResponse{
		RefundID: "re_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Status:   StatusSucceeded,
	}, nil
}
