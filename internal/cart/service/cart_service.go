package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/internal/cart/domain"
	"github.com/Hasin-ai/E-commerce-sub001/internal/cart/repository"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, sku, productName string, unitPrice money.Money, quantity int32) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID int64, quantity int32) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID int64) error
}

type cartService struct {
	pool     *pgxpool.Pool
	cartRepo repository.CartRepository
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewCartService(pool *pgxpool.Pool, cartRepo repository.CartRepository, logger *zap.Logger) CartService {
	return &cartService{
		pool:     pool,
		cartRepo: cartRepo,
		logger:   logger,
		tracer:   otel.Tracer("cart_service"),
	}
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "cart", err)
		}
		return nil, err
	}

	return cart, nil
}

// AddItem creates the cart lazily on a user's first add.
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, sku, productName string, unitPrice money.Money, quantity int32) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
		attribute.Int("quantity", int(quantity)),
	)

	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrCartNotFound) {
			return nil, err
		}
		cart = domain.NewCart(userID, unitPrice.Currency())
	}

	if err := cart.AddItem(productID, sku, productName, unitPrice, quantity); err != nil {
		return nil, err
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Item added to cart",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
	)

	return cart, nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, productID int64, quantity int32) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateItemQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
	)

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cart.UpdateItemQuantity(productID, quantity); err != nil {
		return nil, err
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
	)

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cart.RemoveItem(productID); err != nil {
		return nil, err
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "CartService.ClearCart")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}

	cart.Clear()

	if err := s.save(ctx, cart); err != nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Cart cleared",
		zap.Int64("user_id", userID),
	)

	return nil
}

func (s *cartService) loadCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			mylogger.Warn(
				ctx,
				s.logger,
				"Cart not found",
				zap.Int64("user_id", userID),
			)

			return nil, apperr.Wrap(apperr.KindNotFound, "cart", err)
		}

		return nil, err
	}

	return cart, nil
}

func (s *cartService) save(ctx context.Context, cart *domain.Cart) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to begin transaction",
			zap.Error(err),
		)

		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := s.cartRepo.Save(ctx, tx, cart); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
