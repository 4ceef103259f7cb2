package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type InventoryRepository interface {
	FindByProductID(ctx context.Context, productID int64) (*domain.Inventory, error)
	FindByProductIDForUpdate(ctx context.Context, tx pgx.Tx, productID int64) (*domain.Inventory, error)
	UpdateCounters(ctx context.Context, tx pgx.Tx, inv *domain.Inventory) error
	AppendMovement(ctx context.Context, tx pgx.Tx, mv *domain.InventoryMovement) error
	HasMovement(ctx context.Context, tx pgx.Tx, reference string, movementType domain.MovementType) (bool, error)
	FindMovements(ctx context.Context, productID int64, limit int32) ([]domain.InventoryMovement, error)
	FindLowStock(ctx context.Context) ([]domain.Inventory, error)
	FindOutOfStock(ctx context.Context) ([]domain.Inventory, error)
	Save(ctx context.Context, tx pgx.Tx, inv *domain.Inventory) error
}

type inventoryRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewInventoryRepository(pool *pgxpool.Pool, logger *zap.Logger) InventoryRepository {
	return &inventoryRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("inventory_repository"),
	}
}

const inventoryColumns = `id, product_id, vendor_id, quantity, reserved_quantity, min_stock_level, last_updated, created_at`

func (r *inventoryRepo) FindByProductID(ctx context.Context, productID int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.FindByProductID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory
		WHERE product_id = $1;
	`, inventoryColumns)

	return r.scanInventory(ctx, r.pool.QueryRow(ctx, query, productID), productID)
}

// FindByProductIDForUpdate takes the per-product row lock that serializes all
// counter updates for a product.
func (r *inventoryRepo) FindByProductIDForUpdate(ctx context.Context, tx pgx.Tx, productID int64) (*domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.FindByProductIDForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory
		WHERE product_id = $1
		FOR UPDATE;
	`, inventoryColumns)

	return r.scanInventory(ctx, tx.QueryRow(ctx, query, productID), productID)
}

func (r *inventoryRepo) scanInventory(ctx context.Context, row pgx.Row, productID int64) (*domain.Inventory, error) {
	var inv domain.Inventory
	if err := row.Scan(
		&inv.ID,
		&inv.ProductID,
		&inv.VendorID,
		&inv.Quantity,
		&inv.ReservedQuantity,
		&inv.MinStockLevel,
		&inv.LastUpdated,
		&inv.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInventoryNotFound
		}

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query inventory",
			zap.Int64("product_id", productID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}

	return &inv, nil
}

func (r *inventoryRepo) UpdateCounters(ctx context.Context, tx pgx.Tx, inv *domain.Inventory) error {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.UpdateCounters")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", inv.ProductID),
		attribute.Int("quantity", int(inv.Quantity)),
		attribute.Int("reserved_quantity", int(inv.ReservedQuantity)),
	)

	query := `
		UPDATE inventory
		SET quantity = $1, reserved_quantity = $2, last_updated = $3
		WHERE id = $4;
	`

	tag, err := tx.Exec(ctx, query, inv.Quantity, inv.ReservedQuantity, inv.LastUpdated, inv.ID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update inventory counters",
			zap.Int64("product_id", inv.ProductID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update inventory counters: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrInventoryNotFound
	}

	return nil
}

func (r *inventoryRepo) AppendMovement(ctx context.Context, tx pgx.Tx, mv *domain.InventoryMovement) error {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.AppendMovement")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", mv.ProductID),
		attribute.String("movement_type", string(mv.Type)),
	)

	query := `
		INSERT INTO inventory_movements
			(inventory_id, product_id, type, quantity, previous_quantity, new_quantity, reason, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;
	`

	if err := tx.QueryRow(ctx, query,
		mv.InventoryID,
		mv.ProductID,
		string(mv.Type),
		mv.Quantity,
		mv.PreviousQuantity,
		mv.NewQuantity,
		mv.Reason,
		mv.Reference,
		mv.CreatedAt,
	).Scan(&mv.ID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to append inventory movement",
			zap.Int64("product_id", mv.ProductID),
			zap.String("movement_type", string(mv.Type)),
			zap.Error(err),
		)

		return fmt.Errorf("failed to append inventory movement: %w", err)
	}

	return nil
}

// HasMovement reports whether any movement with the given reference and type
// exists. The webhook reconciler uses it to keep stock commits idempotent.
func (r *inventoryRepo) HasMovement(ctx context.Context, tx pgx.Tx, reference string, movementType domain.MovementType) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.HasMovement")
	defer span.End()

	span.SetAttributes(
		attribute.String("reference", reference),
		attribute.String("movement_type", string(movementType)),
	)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM inventory_movements
			WHERE reference = $1 AND type = $2
		);
	`

	var exists bool
	if err := tx.QueryRow(ctx, query, reference, string(movementType)).Scan(&exists); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check inventory movement: %w", err)
	}

	return exists, nil
}

func (r *inventoryRepo) FindMovements(ctx context.Context, productID int64, limit int32) ([]domain.InventoryMovement, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.FindMovements")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	query := `
		SELECT id, inventory_id, product_id, type, quantity, previous_quantity, new_quantity, reason, reference, created_at
		FROM inventory_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2;
	`

	rows, err := r.pool.Query(ctx, query, productID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query inventory movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.InventoryMovement
	for rows.Next() {
		var mv domain.InventoryMovement
		var movementType string
		if err := rows.Scan(
			&mv.ID,
			&mv.InventoryID,
			&mv.ProductID,
			&movementType,
			&mv.Quantity,
			&mv.PreviousQuantity,
			&mv.NewQuantity,
			&mv.Reason,
			&mv.Reference,
			&mv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory movement: %w", err)
		}
		mv.Type = domain.MovementType(movementType)
		movements = append(movements, mv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory movements: %w", err)
	}

	return movements, nil
}

func (r *inventoryRepo) FindLowStock(ctx context.Context) ([]domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.FindLowStock")
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory
		WHERE quantity - reserved_quantity <= min_stock_level
		ORDER BY product_id;
	`, inventoryColumns)

	return r.queryInventories(ctx, span, query)
}

func (r *inventoryRepo) FindOutOfStock(ctx context.Context) ([]domain.Inventory, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.FindOutOfStock")
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory
		WHERE quantity - reserved_quantity <= 0
		ORDER BY product_id;
	`, inventoryColumns)

	return r.queryInventories(ctx, span, query)
}

func (r *inventoryRepo) queryInventories(ctx context.Context, span trace.Span, query string) ([]domain.Inventory, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query inventories",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query inventories: %w", err)
	}
	defer rows.Close()

	var items []domain.Inventory
	for rows.Next() {
		var inv domain.Inventory
		if err := rows.Scan(
			&inv.ID,
			&inv.ProductID,
			&inv.VendorID,
			&inv.Quantity,
			&inv.ReservedQuantity,
			&inv.MinStockLevel,
			&inv.LastUpdated,
			&inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		items = append(items, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventories: %w", err)
	}

	return items, nil
}

func (r *inventoryRepo) Save(ctx context.Context, tx pgx.Tx, inv *domain.Inventory) error {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", inv.ProductID),
	)

	query := `
		INSERT INTO inventory (product_id, vendor_id, quantity, reserved_quantity, min_stock_level, last_updated, created_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    min_stock_level = EXCLUDED.min_stock_level,
		    last_updated = now()
		RETURNING id, last_updated, created_at;
	`

	if err := tx.QueryRow(ctx, query,
		inv.ProductID,
		inv.VendorID,
		inv.Quantity,
		inv.ReservedQuantity,
		inv.MinStockLevel,
	).Scan(&inv.ID, &inv.LastUpdated, &inv.CreatedAt); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to save inventory",
			zap.Int64("product_id", inv.ProductID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to save inventory: %w", err)
	}

	return nil
}
