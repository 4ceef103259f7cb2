package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hasin-ai/E-commerce-sub001/internal/cart/domain"
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

type CartRepository interface {
	FindByUserID(ctx context.Context, userID int64) (*domain.Cart, error)
	Save(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error
}

type cartRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCartRepository(pool *pgxpool.Pool, logger *zap.Logger) CartRepository {
	return &cartRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("cart_repository"),
	}
}

func (r *cartRepo) FindByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, user_id, currency, total_amount::text, created_at, updated_at
		FROM carts
		WHERE user_id = $1;
	`

	var cart domain.Cart
	var totalAmount string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Currency,
		&totalAmount,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query cart",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	total, err := money.New(decimal.RequireFromString(totalAmount), cart.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid stored cart total: %w", err)
	}
	cart.TotalAmount = total

	items, err := r.findItems(ctx, cart.ID, cart.Currency)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

func (r *cartRepo) findItems(ctx context.Context, cartID int64, currency string) ([]domain.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, sku, product_name, unit_price::text, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id;
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		var unitPrice string
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.SKU,
			&item.ProductName,
			&unitPrice,
			&item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("error scanning cart item: %w", err)
		}

		price, err := money.New(decimal.RequireFromString(unitPrice), currency)
		if err != nil {
			return nil, fmt.Errorf("invalid stored unit price: %w", err)
		}
		item.UnitPrice = price

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// Save upserts the cart row by user and replaces its item lines.
func (r *cartRepo) Save(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", cart.UserID),
		attribute.Int("items_count", len(cart.Items)),
	)

	query := `
		INSERT INTO carts (user_id, currency, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET currency = EXCLUDED.currency,
			total_amount = EXCLUDED.total_amount,
			updated_at = NOW()
		RETURNING id, created_at, updated_at;
	`

	if err := tx.QueryRow(
		ctx,
		query,
		cart.UserID,
		cart.Currency,
		cart.TotalAmount.Amount().String(),
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to upsert cart",
			zap.Int64("user_id", cart.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1;`, cart.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete cart items: %w", err)
	}

	itemQuery := `
		INSERT INTO cart_items (cart_id, product_id, sku, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	for idx := range cart.Items {
		item := &cart.Items[idx]
		item.CartID = cart.ID

		if err := tx.QueryRow(
			ctx,
			itemQuery,
			cart.ID,
			item.ProductID,
			item.SKU,
			item.ProductName,
			item.UnitPrice.Amount().String(),
			item.Quantity,
		).Scan(&item.ID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}

	return nil
}
