package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	orderservice "github.com/Hasin-ai/E-commerce-sub001/internal/order/service"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
)

type ShipOrderInput struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

type CancelOrderInput struct {
	Reason string `json:"reason" validate:"required"`
}

type OrderHandler struct {
	orders   *orderservice.OrderService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewOrderHandler(orders *orderservice.OrderService, validate *validator.Validate, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		validate: validate,
		logger:   logger,
	}
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	order, err := h.orders.GetOrder(c.UserContext(), int64(orderID))
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) ListForUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user id",
		})
	}

	orders, err := h.orders.ListOrders(c.UserContext(), int64(userID))
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orders": orders,
	})
}

func (h *OrderHandler) Ship(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	input := new(ShipOrderInput)
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

	order, err := h.orders.Ship(c.UserContext(), int64(orderID), input.TrackingNumber)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"ship order failed",
			zap.Int("order_id", orderID),
			zap.Error(err),
		)

		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) Deliver(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	order, err := h.orders.Deliver(c.UserContext(), int64(orderID))
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	input := new(CancelOrderInput)
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

	order, err := h.orders.Cancel(c.UserContext(), int64(orderID), input.Reason)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"cancel order failed",
			zap.Int("order_id", orderID),
			zap.Error(err),
		)

		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(order)
}
