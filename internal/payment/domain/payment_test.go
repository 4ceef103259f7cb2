package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
)

func newTestPayment(t *testing.T) *Payment {
	t.Helper()

	payment, err := NewPayment(1, money.MustNew("100.00", "USD"), "card")
	require.NoError(t, err)
	return payment
}

func TestNewPaymentStartsPending(t *testing.T) {
	payment := newTestPayment(t)

	assert.Equal(t, StatusPending, payment.Status)
	assert.True(t, strings.HasPrefix(payment.PaymentReference, "PAY_"))
	assert.Len(t, payment.PaymentReference, 20)
	assert.Nil(t, payment.PaymentIntentID)
}

func TestNewPaymentRejectsZeroAmount(t *testing.T) {
	_, err := NewPayment(1, money.Zero("USD"), "card")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAttachIntentOnlyOnce(t *testing.T) {
	payment := newTestPayment(t)

	require.NoError(t, payment.AttachIntent("pi_123"))
	require.NotNil(t, payment.PaymentIntentID)
	assert.Equal(t, "pi_123", *payment.PaymentIntentID)

	err := payment.AttachIntent("pi_456")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, "pi_123", *payment.PaymentIntentID)
}

func TestCompletionPath(t *testing.T) {
	payment := newTestPayment(t)

	require.NoError(t, payment.MarkAsProcessing())
	require.NoError(t, payment.MarkAsCompleted())
	assert.Equal(t, StatusCompleted, payment.Status)
	assert.True(t, payment.Status.IsTerminal())
}

func TestRequiresActionPath(t *testing.T) {
	payment := newTestPayment(t)

	require.NoError(t, payment.MarkAsProcessing())
	require.NoError(t, payment.MarkAsRequiresAction())
	require.NoError(t, payment.MarkAsCompleted())
	assert.Equal(t, StatusCompleted, payment.Status)
}

func TestCompleteFromPendingFails(t *testing.T) {
	payment := newTestPayment(t)

	err := payment.MarkAsCompleted()
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestFailedKeepsReason(t *testing.T) {
	payment := newTestPayment(t)
	require.NoError(t, payment.MarkAsProcessing())

	require.NoError(t, payment.MarkAsFailed("card declined"))
	assert.Equal(t, StatusFailed, payment.Status)
	assert.Equal(t, "card declined", payment.ErrorMessage)

	err := payment.MarkAsFailed("again")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestCancelInvalidFromCompleted(t *testing.T) {
	payment := newTestPayment(t)
	require.NoError(t, payment.MarkAsProcessing())
	require.NoError(t, payment.MarkAsCompleted())

	err := payment.Cancel()
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestPartialThenFullRefund(t *testing.T) {
	payment := newTestPayment(t)
	require.NoError(t, payment.MarkAsProcessing())
	require.NoError(t, payment.MarkAsCompleted())

	refund, err := payment.Refund(money.MustNew("30.00", "USD"), "damaged item", "re_001")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, payment.Status)
	assert.Equal(t, "re_001", refund.TransactionID)
	assert.Equal(t, RefundCompleted, refund.Status)

	_, err = payment.Refund(money.MustNew("70.00", "USD"), "order cancelled", "re_002")
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, payment.Status)
	assert.Equal(t, "re_002", payment.Refunds[1].TransactionID)

	refunded, err := payment.RefundedAmount()
	require.NoError(t, err)
	assert.Equal(t, "100.00 USD", refunded.String())
}

func TestOverRefundRejected(t *testing.T) {
	payment := newTestPayment(t)
	require.NoError(t, payment.MarkAsProcessing())
	require.NoError(t, payment.MarkAsCompleted())

	_, err := payment.Refund(money.MustNew("100.01", "USD"), "too much", "re_003")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, StatusCompleted, payment.Status)
	assert.Empty(t, payment.Refunds)
}

func TestRefundBeforeCompletionFails(t *testing.T) {
	payment := newTestPayment(t)

	_, err := payment.Refund(money.MustNew("10.00", "USD"), "early", "re_004")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}
