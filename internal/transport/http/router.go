package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Hasin-ai/E-commerce-sub001/internal/transport/http/handler"
)

type Handlers struct {
	Cart      *handler.CartHandler
	Checkout  *handler.CheckoutHandler
	Order     *handler.OrderHandler
	Payment   *handler.PaymentHandler
	Inventory *handler.InventoryHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers) {
	app.Post("/webhooks/payment", h.Checkout.Webhook)

	api := app.Group("/api")

	api.Post("/checkout", h.Checkout.Checkout)

	cart := api.Group("/users/:userId/cart")
	cart.Get("", h.Cart.Get)
	cart.Post("/items", h.Cart.AddItem)
	cart.Put("/items/:productId", h.Cart.UpdateItemQuantity)
	cart.Delete("/items/:productId", h.Cart.RemoveItem)
	cart.Delete("", h.Cart.Clear)

	api.Get("/users/:userId/orders", h.Order.ListForUser)

	order := api.Group("/orders")
	order.Get("/:id", h.Order.Get)
	order.Post("/:id/ship", h.Order.Ship)
	order.Post("/:id/deliver", h.Order.Deliver)
	order.Post("/:id/cancel", h.Order.Cancel)

	payment := api.Group("/payments")
	payment.Get("/:id", h.Payment.Get)
	payment.Post("/:id/refund", h.Payment.Refund)

	inventory := api.Group("/inventory")
	inventory.Get("/low-stock", h.Inventory.LowStock)
	inventory.Get("/out-of-stock", h.Inventory.OutOfStock)
	inventory.Get("/:productId", h.Inventory.Get)
	inventory.Put("/:productId", h.Inventory.AdjustStock)
	inventory.Get("/:productId/movements", h.Inventory.Movements)
}
