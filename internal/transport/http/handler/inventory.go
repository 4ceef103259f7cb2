package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	invservice "github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
)

type AdjustStockInput struct {
	Quantity int32  `json:"quantity" validate:"gte=0"`
	Reason   string `json:"reason" validate:"required"`
}

type InventoryHandler struct {
	inventory *invservice.InventoryService
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewInventoryHandler(inventory *invservice.InventoryService, validate *validator.Validate, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		validate:  validate,
		logger:    logger,
	}
}

func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	productID, err := c.ParamsInt("productId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	inv, err := h.inventory.GetByProductID(c.UserContext(), int64(productID))
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(inv)
}

func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	productID, err := c.ParamsInt("productId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	input := new(AdjustStockInput)
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

	inv, err := h.inventory.AdjustStock(c.UserContext(), int64(productID), input.Quantity, input.Reason)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"adjust stock failed",
			zap.Int("product_id", productID),
			zap.Error(err),
		)

		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(inv)
}

func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	productID, err := c.ParamsInt("productId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	limit := c.QueryInt("limit", 50)

	movements, err := h.inventory.GetMovements(c.UserContext(), int64(productID), int32(limit))
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"movements": movements,
	})
}

func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.inventory.FindLowStock(c.UserContext())
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"items": items,
	})
}

func (h *InventoryHandler) OutOfStock(c *fiber.Ctx) error {
	items, err := h.inventory.FindOutOfStock(c.UserContext())
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"items": items,
	})
}
