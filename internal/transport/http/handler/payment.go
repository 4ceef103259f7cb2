package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	paymentservice "github.com/Hasin-ai/E-commerce-sub001/internal/payment/service"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
)

type RefundInput struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
	Reason   string `json:"reason" validate:"required"`
}

type PaymentHandler struct {
	payments *paymentservice.PaymentService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewPaymentHandler(payments *paymentservice.PaymentService, validate *validator.Validate, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		validate: validate,
		logger:   logger,
	}
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	paymentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payment id",
		})
	}

	payment, err := h.payments.GetPayment(c.UserContext(), int64(paymentID))
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(payment)
}

func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	paymentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payment id",
		})
	}

	input := new(RefundInput)
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

	value, err := decimal.NewFromString(input.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid refund amount",
		})
	}
	amount, err := money.New(value, input.Currency)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	payment, err := h.payments.Refund(c.UserContext(), int64(paymentID), amount, input.Reason)
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"refund failed",
			zap.Int("payment_id", paymentID),
			zap.Error(err),
		)

		return c.Status(statusFromError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(payment)
}
