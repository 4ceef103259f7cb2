package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hasin-ai/E-commerce-sub001/internal/order/domain"
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

type OrderRepository interface {
	Save(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	FindByID(ctx context.Context, orderID int64) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int64) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID int64) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, order *domain.Order) error
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

func (r *orderRepo) Save(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_number", order.OrderNumber),
		attribute.Int64("user_id", order.UserID),
	)

	query := `
		INSERT INTO orders
			(order_number, user_id, status, currency, total_amount,
			 ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country,
			 bill_line1, bill_line2, bill_city, bill_state, bill_postal_code, bill_country,
			 tracking_number, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id;
	`

	if err := tx.QueryRow(ctx, query,
		order.OrderNumber,
		order.UserID,
		string(order.Status),
		order.Currency,
		order.TotalAmount.Amount().String(),
		order.ShippingAddress.Line1,
		order.ShippingAddress.Line2,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		order.BillingAddress.Line1,
		order.BillingAddress.Line2,
		order.BillingAddress.City,
		order.BillingAddress.State,
		order.BillingAddress.PostalCode,
		order.BillingAddress.Country,
		order.TrackingNumber,
		order.CancelReason,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, sku, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		if err := tx.QueryRow(ctx, itemQuery,
			item.OrderID,
			item.ProductID,
			item.SKU,
			item.ProductName,
			item.UnitPrice.Amount().String(),
			item.Quantity,
		).Scan(&item.ID); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert order item",
				zap.String("order_number", order.OrderNumber),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, order_number, user_id, status, currency, total_amount::text,
	ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country,
	bill_line1, bill_line2, bill_city, bill_state, bill_postal_code, bill_country,
	tracking_number, cancel_reason, created_at, updated_at`

func (r *orderRepo) FindByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1;`, orderColumns)

	order, err := r.scanOrder(ctx, r.pool.QueryRow(ctx, query, orderID), orderID)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, r.pool, order); err != nil {
		return nil, err
	}

	return order, nil
}

// FindByIDForUpdate locks the order row so concurrent status transitions and
// webhook deliveries serialize on it.
func (r *orderRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, orderID int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.FindByIDForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE;`, orderColumns)

	order, err := r.scanOrder(ctx, tx.QueryRow(ctx, query, orderID), orderID)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, tx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepo) FindByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 ORDER BY created_at DESC;`, orderColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, r.pool, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", order.ID),
		attribute.String("status", string(order.Status)),
	)

	query := `
		UPDATE orders
		SET status = $1, tracking_number = $2, cancel_reason = $3, updated_at = $4
		WHERE id = $5;
	`

	tag, err := tx.Exec(ctx, query,
		string(order.Status),
		order.TrackingNumber,
		order.CancelReason,
		order.UpdatedAt,
		order.ID,
	)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order status",
			zap.Int64("order_id", order.ID),
			zap.String("status", string(order.Status)),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *orderRepo) loadItems(ctx context.Context, q pgxQuerier, order *domain.Order) error {
	query := `
		SELECT id, order_id, product_id, sku, product_name, unit_price::text, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id;
	`

	rows, err := q.Query(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		var unitPrice string
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.SKU,
			&item.ProductName,
			&unitPrice,
			&item.Quantity,
		); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		price, err := money.New(decimal.RequireFromString(unitPrice), order.Currency)
		if err != nil {
			return fmt.Errorf("failed to restore order item price: %w", err)
		}
		item.UnitPrice = price

		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

func (r *orderRepo) scanOrder(ctx context.Context, row pgx.Row, orderID int64) (*domain.Order, error) {
	order, err := scanOrderFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

func (r *orderRepo) scanOrderRow(rows pgx.Rows) (*domain.Order, error) {
	order, err := scanOrderFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return order, nil
}

func scanOrderFrom(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var status, totalAmount string

	if err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&status,
		&order.Currency,
		&totalAmount,
		&order.ShippingAddress.Line1,
		&order.ShippingAddress.Line2,
		&order.ShippingAddress.City,
		&order.ShippingAddress.State,
		&order.ShippingAddress.PostalCode,
		&order.ShippingAddress.Country,
		&order.BillingAddress.Line1,
		&order.BillingAddress.Line2,
		&order.BillingAddress.City,
		&order.BillingAddress.State,
		&order.BillingAddress.PostalCode,
		&order.BillingAddress.Country,
		&order.TrackingNumber,
		&order.CancelReason,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)

	total, err := money.New(decimal.RequireFromString(totalAmount), order.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to restore order total: %w", err)
	}
	order.TotalAmount = total

	return &order, nil
}
