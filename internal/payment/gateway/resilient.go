package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Hasin-ai/E-commerce-sub001/pkg/config"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
)

// ResilientGateway wraps another Gateway with a bounded per-call timeout, a
// circuit breaker and retries with backoff for transient errors. Declines
// come back as responses and are never retried.
type ResilientGateway struct {
	inner      Gateway
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewResilientGateway(inner Gateway, cfg config.Gateway, logger *zap.Logger) *ResilientGateway {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment_gateway",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Payment gateway breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &ResilientGateway{
		inner:      inner,
		breaker:    breaker,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		tracer:     otel.Tracer("payment_gateway"),
	}
}

func (g *ResilientGateway) Submit(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	ctx, span := g.tracer.Start(ctx, "PaymentGateway.Submit")
	defer span.End()

	span.SetAttributes(
		attribute.String("idempotency_key", req.IdempotencyKey),
	)

	return call(g, ctx, "submit", func(callCtx context.Context) (ChargeResponse, error) {
		return g.inner.Submit(callCtx, req)
	})
}

func (g *ResilientGateway) Refund(ctx context.Context, req RefundRequest) (RefundResponse, error) {
	ctx, span := g.tracer.Start(ctx, "PaymentGateway.Refund")
	defer span.End()

	span.SetAttributes(
		attribute.String("payment_intent_id", req.PaymentIntentID),
	)

	return call(g, ctx, "refund", func(callCtx context.Context) (RefundResponse, error) {
		return g.inner.Refund(callCtx, req)
	})
}

func call[T any](g *ResilientGateway, ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				var zero T
				return zero, fmt.Errorf("gateway %s aborted: %w", op, ctx.Err())
			case <-time.After(backoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		res, err := utils.ExecuteWithBreaker(g.breaker, func() (T, error) {
			return fn(callCtx)
		})
		cancel()

		if err == nil {
			return res, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		mylogger.Warn(
			ctx,
			g.logger,
			"Payment gateway call failed",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	var zero T
	return zero, fmt.Errorf("gateway %s failed after retries: %w", op, lastErr)
}
