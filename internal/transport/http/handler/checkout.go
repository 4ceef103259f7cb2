package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Hasin-ai/E-commerce-sub001/internal/checkout"
	orderdomain "github.com/Hasin-ai/E-commerce-sub001/internal/order/domain"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/mylogger"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/utils"
)

type AddressInput struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
}

type CheckoutInput struct {
	UserID          int64        `json:"user_id" validate:"required,gt=0"`
	ShippingAddress AddressInput `json:"shipping_address" validate:"required"`
	BillingAddress  AddressInput `json:"billing_address" validate:"required"`
	PaymentMethod   string       `json:"payment_method" validate:"required"`
	PaymentToken    string       `json:"payment_token" validate:"required"`
	CustomerID      string       `json:"customer_id"`
}

type webhookPayload struct {
	EventType       string `json:"event_type"`
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
}

type CheckoutHandler struct {
	checkouts     *checkout.CheckoutService
	reconciler    *checkout.Reconciler
	webhookSecret string
	validate      *validator.Validate
	logger        *zap.Logger
}

func NewCheckoutHandler(
	checkouts *checkout.CheckoutService,
	reconciler *checkout.Reconciler,
	webhookSecret string,
	validate *validator.Validate,
	logger *zap.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts:     checkouts,
		reconciler:    reconciler,
		webhookSecret: webhookSecret,
		validate:      validate,
		logger:        logger,
	}
}

func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	input := new(CheckoutInput)

	if err := c.BodyParser(&input); err != nil {
		h.logger.Warn(
			"failed to parse body in checkout",
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

	result, err := h.checkouts.Checkout(c.UserContext(), checkout.CheckoutRequest{
		UserID:          input.UserID,
		ShippingAddress: toAddress(input.ShippingAddress),
		BillingAddress:  toAddress(input.BillingAddress),
		PaymentMethod:   input.PaymentMethod,
		PaymentToken:    input.PaymentToken,
		CustomerID:      input.CustomerID,
	})
	if err != nil {
		mylogger.Warn(
			c.UserContext(),
			h.logger,
			"checkout failed",
			zap.Int64("user_id", input.UserID),
			zap.Error(err),
		)

		body := fiber.Map{"error": err.Error()}
		if result != nil {
			body["order_id"] = result.OrderID
			body["payment_id"] = result.PaymentID
			body["status"] = result.Status
		}

		return c.Status(statusFromError(err)).JSON(body)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"order_id":   result.OrderID,
		"payment_id": result.PaymentID,
		"status":     result.Status,
		"message":    result.Message,
	})
}

// Webhook receives gateway callbacks. The body is authenticated with an
// HMAC-SHA256 signature before anything is parsed out of it. Handling errors
// return 500 so the gateway redelivers; the reconciler is idempotent.
func (h *CheckoutHandler) Webhook(c *fiber.Ctx) error {
	body := c.Body()

	if !h.verifySignature(body, c.Get("X-Gateway-Signature")) {
		h.logger.Warn("webhook signature verification failed")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid signature",
		})
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	err := h.reconciler.Handle(c.UserContext(), checkout.WebhookEvent{
		EventType:       payload.EventType,
		PaymentIntentID: payload.PaymentIntentID,
		GatewayStatus:   payload.Status,
		RawPayload:      body,
	})
	if err != nil {
		mylogger.Error(
			c.UserContext(),
			h.logger,
			"webhook handling failed",
			zap.String("event_type", payload.EventType),
			zap.String("payment_intent_id", payload.PaymentIntentID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *CheckoutHandler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" {
		// unset secret means local development against the simulator
		return true
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func toAddress(in AddressInput) orderdomain.Address {
	return orderdomain.Address{
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
}
