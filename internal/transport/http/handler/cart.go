package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	cartservice "github.com/Hasin-ai/E-commerce-sub001/internal/cart/service"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
)

type AddItemInput struct {
	ProductID   int64  `json:"product_id" validate:"required,gt=0"`
	SKU         string `json:"sku" validate:"required"`
	ProductName string `json:"product_name" validate:"required"`
	UnitPrice   string `json:"unit_price" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Quantity    int32  `json:"quantity" validate:"required,gte=1,lte=999"`
}

type UpdateQuantityInput struct {
	Quantity int32 `json:"quantity" validate:"required,gte=1,lte=999"`
}

type CartHandler struct {
	carts    cartservice.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(carts cartservice.CartService, validate *validator.Validate, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		validate: validate,
		logger:   logger,
	}
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	cart, err := h.carts.GetCart(c.UserContext(), int64(userID))
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"get cart failed",
			zap.Int("user_id", userID),
			zap.Error(err),
		)

		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(cart)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	input := new(AddItemInput)
	if err := c.BodyParser(&input); err != nil {
		h.logger.Warn(
			"failed to parse body in add item",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	amount, err := decimal.NewFromString(input.UnitPrice)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid unit price",
		})
	}
	unitPrice, err := money.New(amount, input.Currency)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	cart, err := h.carts.AddItem(c.UserContext(), int64(userID), input.ProductID, input.SKU, input.ProductName, unitPrice, input.Quantity)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"add item failed",
			zap.Int("user_id", userID),
			zap.Int64("product_id", input.ProductID),
			zap.Error(err),
		)

		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(cart)
}

func (h *CartHandler) UpdateItemQuantity(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	productID, err := c.ParamsInt("productId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	input := new(UpdateQuantityInput)
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	cart, err := h.carts.UpdateItemQuantity(c.UserContext(), int64(userID), int64(productID), input.Quantity)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"update item quantity failed",
			zap.Int("user_id", userID),
			zap.Int("product_id", productID),
			zap.Error(err),
		)

		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(cart)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	productID, err := c.ParamsInt("productId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), int64(userID), int64(productID))
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(cart)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	if err := h.carts.ClearCart(c.UserContext(), int64(userID)); err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
