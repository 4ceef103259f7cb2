package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/domain"
	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/repository"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ReservationLine is one product/quantity pair inside a reservation request.
type ReservationLine struct {
	ProductID int64
	Quantity  int32
}

type InventoryService struct {
	pool          *pgxpool.Pool
	inventoryRepo repository.InventoryRepository
	logger        *zap.Logger
	tracer        trace.Tracer
}

func NewInventoryService(pool *pgxpool.Pool, inventoryRepo repository.InventoryRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		pool:          pool,
		inventoryRepo: inventoryRepo,
		logger:        logger,
		tracer:        otel.Tracer("inventory_service"),
	}
}

// Reserve places holds for every line in a single transaction. Rows are
// locked in ascending product id order so concurrent checkouts sharing
// products cannot deadlock. Any failure rolls the whole reservation back.
func (s *InventoryService) Reserve(ctx context.Context, reference string, lines []ReservationLine) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Reserve")
	defer span.End()

	span.SetAttributes(
		attribute.String("reference", reference),
		attribute.Int("line_count", len(lines)),
	)

	if len(lines) == 0 {
		return apperr.New(apperr.KindValidation, "reservation requires at least one line")
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, line := range sortedLines(lines) {
			if err := s.applyMovement(ctx, tx, line.ProductID, func(inv *domain.Inventory) (domain.InventoryMovement, error) {
				return inv.Reserve(line.Quantity, reference)
			}); err != nil {
				return err
			}
		}

		mylogger.Info(
			ctx,
			s.logger,
			"Reserved inventory",
			zap.String("reference", reference),
			zap.Int("line_count", len(lines)),
		)

		return nil
	})
}

// Release returns reserved units to availability. It is a no-op when no
// active reservation exists for the reference, so compensation paths and the
// reconciler can call it without tracking whether the hold was already undone.
func (s *InventoryService) Release(ctx context.Context, reference string, lines []ReservationLine) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Release")
	defer span.End()

	span.SetAttributes(
		attribute.String("reference", reference),
	)

	return s.inTx(ctx, func(tx pgx.Tx) error {
		done, err := s.alreadySettled(ctx, tx, reference)
		if err != nil {
			return err
		}
		if done {
			mylogger.Info(
				ctx,
				s.logger,
				"Reservation already settled, skipping release",
				zap.String("reference", reference),
			)
			return nil
		}

		for _, line := range sortedLines(lines) {
			if err := s.applyMovement(ctx, tx, line.ProductID, func(inv *domain.Inventory) (domain.InventoryMovement, error) {
				return inv.Release(line.Quantity, reference)
			}); err != nil {
				return err
			}
		}

		mylogger.Info(
			ctx,
			s.logger,
			"Released inventory reservation",
			zap.String("reference", reference),
		)

		return nil
	})
}

// Commit consumes the holds after payment succeeds. A reference whose stock
// already left (or was already released) is skipped, which makes duplicate
// webhook deliveries harmless.
func (s *InventoryService) Commit(ctx context.Context, reference string, lines []ReservationLine) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Commit")
	defer span.End()

	span.SetAttributes(
		attribute.String("reference", reference),
	)

	return s.inTx(ctx, func(tx pgx.Tx) error {
		done, err := s.alreadySettled(ctx, tx, reference)
		if err != nil {
			return err
		}
		if done {
			mylogger.Info(
				ctx,
				s.logger,
				"Reservation already settled, skipping commit",
				zap.String("reference", reference),
			)
			return nil
		}

		for _, line := range sortedLines(lines) {
			if err := s.applyMovement(ctx, tx, line.ProductID, func(inv *domain.Inventory) (domain.InventoryMovement, error) {
				return inv.Commit(line.Quantity, reference)
			}); err != nil {
				return err
			}
		}

		mylogger.Info(
			ctx,
			s.logger,
			"Committed inventory reservation",
			zap.String("reference", reference),
		)

		return nil
	})
}

// AdjustStock sets the on-hand quantity of a product, creating the inventory
// row if the product has never been stocked.
func (s *InventoryService) AdjustStock(ctx context.Context, productID int64, newQuantity int32, reason string) (*domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AdjustStock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
		attribute.Int("new_quantity", int(newQuantity)),
	)

	if reason == "" {
		return nil, apperr.New(apperr.KindValidation, "adjustment reason is required")
	}

	var result *domain.Inventory
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		inv, err := s.inventoryRepo.FindByProductIDForUpdate(ctx, tx, productID)
		if err != nil {
			if !errors.Is(err, repository.ErrInventoryNotFound) {
				return err
			}

			inv = &domain.Inventory{ProductID: productID}
			if err := s.inventoryRepo.Save(ctx, tx, inv); err != nil {
				return err
			}
		}

		mv, err := inv.Adjust(newQuantity, reason)
		if err != nil {
			return err
		}

		if err := s.inventoryRepo.UpdateCounters(ctx, tx, inv); err != nil {
			return err
		}
		if err := s.inventoryRepo.AppendMovement(ctx, tx, &mv); err != nil {
			return err
		}

		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Adjusted stock",
		zap.Int64("product_id", productID),
		zap.Int32("new_quantity", newQuantity),
		zap.String("reason", reason),
	)

	return result, nil
}

func (s *InventoryService) GetByProductID(ctx context.Context, productID int64) (*domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetByProductID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	inv, err := s.inventoryRepo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "no inventory for product %d", productID)
		}
		return nil, err
	}

	return inv, nil
}

func (s *InventoryService) GetMovements(ctx context.Context, productID int64, limit int32) ([]domain.InventoryMovement, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetMovements")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	return s.inventoryRepo.FindMovements(ctx, productID, limit)
}

func (s *InventoryService) FindLowStock(ctx context.Context) ([]domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.FindLowStock")
	defer span.End()

	return s.inventoryRepo.FindLowStock(ctx)
}

func (s *InventoryService) FindOutOfStock(ctx context.Context) ([]domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.FindOutOfStock")
	defer span.End()

	return s.inventoryRepo.FindOutOfStock(ctx)
}

// alreadySettled reports whether the reference's reservation was already
// committed or released.
func (s *InventoryService) alreadySettled(ctx context.Context, tx pgx.Tx, reference string) (bool, error) {
	committed, err := s.inventoryRepo.HasMovement(ctx, tx, reference, domain.MovementStockOut)
	if err != nil {
		return false, err
	}
	if committed {
		return true, nil
	}

	return s.inventoryRepo.HasMovement(ctx, tx, reference, domain.MovementReleased)
}

func (s *InventoryService) applyMovement(
	ctx context.Context,
	tx pgx.Tx,
	productID int64,
	op func(*domain.Inventory) (domain.InventoryMovement, error),
) error {
	inv, err := s.inventoryRepo.FindByProductIDForUpdate(ctx, tx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrInventoryNotFound) {
			return apperr.Newf(apperr.KindNotFound, "no inventory for product %d", productID)
		}
		return err
	}

	mv, err := op(inv)
	if err != nil {
		return err
	}

	if err := s.inventoryRepo.UpdateCounters(ctx, tx, inv); err != nil {
		return err
	}

	return s.inventoryRepo.AppendMovement(ctx, tx, &mv)
}

func (s *InventoryService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func sortedLines(lines []ReservationLine) []ReservationLine {
	sorted := make([]ReservationLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID < sorted[j].ProductID
	})
	return sorted
}
