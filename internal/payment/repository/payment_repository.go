package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hasin-ai/E-commerce-sub001/internal/payment/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	FindByID(ctx context.Context, paymentID int64) (*domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, paymentID int64) (*domain.Payment, error)
	FindByIntentIDForUpdate(ctx context.Context, tx pgx.Tx, intentID string) (*domain.Payment, error)
	SaveRefund(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error
}

type paymentRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewPaymentRepository(pool *pgxpool.Pool, logger *zap.Logger) PaymentRepository {
	return &paymentRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("payment_repository"),
	}
}

const paymentColumns = `id, order_id, payment_reference, payment_intent_id, amount::text, currency,
	status, payment_method, error_message, created_at, updated_at`

func (r *paymentRepo) Save(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", payment.OrderID),
		attribute.String("payment_reference", payment.PaymentReference),
	)

	query := `
		INSERT INTO payments
			(order_id, payment_reference, payment_intent_id, amount, currency,
			 status, payment_method, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;
	`

	if err := tx.QueryRow(ctx, query,
		payment.OrderID,
		payment.PaymentReference,
		payment.PaymentIntentID,
		payment.Amount.Amount().String(),
		payment.Amount.Currency(),
		string(payment.Status),
		payment.PaymentMethod,
		payment.ErrorMessage,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert payment",
			zap.Int64("order_id", payment.OrderID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

func (r *paymentRepo) Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", payment.ID),
		attribute.String("status", string(payment.Status)),
	)

	query := `
		UPDATE payments
		SET payment_intent_id = $1, status = $2, error_message = $3, updated_at = $4
		WHERE id = $5;
	`

	tag, err := tx.Exec(ctx, query,
		payment.PaymentIntentID,
		string(payment.Status),
		payment.ErrorMessage,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update payment",
			zap.Int64("payment_id", payment.ID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update payment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", paymentID),
	)

	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1;`, paymentColumns)

	payment, err := r.scanPayment(ctx, r.pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, err
	}

	if err := r.loadRefunds(ctx, r.pool, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// FindByOrderID returns the most recent payment for the order.
func (r *paymentRepo) FindByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.FindByOrderID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1;
	`, paymentColumns)

	payment, err := r.scanPayment(ctx, r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}

	if err := r.loadRefunds(ctx, r.pool, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *paymentRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, paymentID int64) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.FindByIDForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", paymentID),
	)

	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE id = $1
		FOR UPDATE;
	`, paymentColumns)

	payment, err := r.scanPayment(ctx, tx.QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, err
	}

	if err := r.loadRefunds(ctx, tx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// FindByIntentIDForUpdate locks the payment row so webhook deliveries for
// the same intent serialize.
func (r *paymentRepo) FindByIntentIDForUpdate(ctx context.Context, tx pgx.Tx, intentID string) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.FindByIntentIDForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.String("payment_intent_id", intentID),
	)

	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE payment_intent_id = $1
		FOR UPDATE;
	`, paymentColumns)

	payment, err := r.scanPayment(ctx, tx.QueryRow(ctx, query, intentID))
	if err != nil {
		return nil, err
	}

	if err := r.loadRefunds(ctx, tx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *paymentRepo) SaveRefund(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.SaveRefund")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", refund.PaymentID),
	)

	query := `
		INSERT INTO refunds (payment_id, amount, currency, reason, transaction_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;
	`

	if err := tx.QueryRow(ctx, query,
		refund.PaymentID,
		refund.Amount.Amount().String(),
		refund.Amount.Currency(),
		refund.Reason,
		refund.TransactionID,
		string(refund.Status),
		refund.CreatedAt,
	).Scan(&refund.ID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert refund",
			zap.Int64("payment_id", refund.PaymentID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert refund: %w", err)
	}

	return nil
}

func (r *paymentRepo) scanPayment(ctx context.Context, row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var status, amount, currency string

	if err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.PaymentReference,
		&payment.PaymentIntentID,
		&amount,
		&currency,
		&status,
		&payment.PaymentMethod,
		&payment.ErrorMessage,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}

		mylogger.Error(ctx, r.logger, "Failed to query payment", zap.Error(err))

		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	payment.Status = domain.PaymentStatus(status)

	charged, err := money.New(decimal.RequireFromString(amount), currency)
	if err != nil {
		return nil, fmt.Errorf("failed to restore payment amount: %w", err)
	}
	payment.Amount = charged

	return &payment, nil
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *paymentRepo) loadRefunds(ctx context.Context, q pgxQuerier, payment *domain.Payment) error {
	query := `
		SELECT id, payment_id, amount::text, currency, reason, transaction_id, status, created_at
		FROM refunds
		WHERE payment_id = $1
		ORDER BY id;
	`

	rows, err := q.Query(ctx, query, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to query refunds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var refund domain.Refund
		var amount, currency, status string
		if err := rows.Scan(
			&refund.ID,
			&refund.PaymentID,
			&amount,
			&currency,
			&refund.Reason,
			&refund.TransactionID,
			&status,
			&refund.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan refund: %w", err)
		}
		refund.Status = domain.RefundStatus(status)

		value, err := money.New(decimal.RequireFromString(amount), currency)
		if err != nil {
			return fmt.Errorf("failed to restore refund amount: %w", err)
		}
		refund.Amount = value

		payment.Refunds = append(payment.Refunds, refund)
	}

	return rows.Err()
}
