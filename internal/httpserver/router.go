package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hvaldes/tienda_api/internal/middleware/auth"
	"github.com/hvaldes/tienda_api/internal/service"
)

type Deps struct {
	Checkout  *CheckoutHTTP
	Order     *OrderHTTP
	JWTSecret []byte
	UploadDir string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tok := &auth.TokenService{JWTSecret: d.JWTSecret}

	api := e.Group("/api")

	checkout := api.Group("/checkout")
	checkout.POST("", d.Checkout.CreateCheckout, tok.OptionalUser)
	checkout.POST("/webhook", d.Checkout.Webhook)
	checkout.GET("/success", d.Checkout.PaymentSuccess)
	checkout.GET("/failure", d.Checkout.PaymentFailure)
	checkout.GET("/order/:id", d.Checkout.GetOrderWithPayment, tok.OptionalUser)

	order := api.Group("/order")
	order.GET("/:id", d.Order.GetOrder, tok.OptionalUser)
	order.GET("", d.Order.ListOrders, tok.AdminOnly)
	order.GET("/my-orders", d.Order.MyOrders, tok.RequireLogin)
	order.GET("/status/:status", d.Order.OrdersByStatus, tok.AdminOnly)
	order.GET("/pending-review", d.Order.PendingReview, tok.AdminOnly)

	order.POST("/:id/payment-receipt", d.Order.UploadReceipt, tok.RequireLogin)
	order.GET("/:id/payment-receipt", d.Order.GetReceipt, tok.RequireLogin)

	order.PUT("/:id/approve-payment", d.Order.ApprovePayment, tok.AdminOnly)
	order.PUT("/:id/reject-payment", d.Order.RejectPayment, tok.AdminOnly)
	order.PUT("/:id/mark-shipped", d.Order.MarkShipped, tok.AdminOnly)
	order.PUT("/:id/mark-delivered", d.Order.MarkDelivered, tok.AdminOnly)

	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}
}

// isValidation and friends keep the handlers free of direct errors.Is
// chains against every sentinel.
func isValidation(err error) bool { return errors.Is(err, service.ErrValidation) }
func isNotFound(err error) bool   { return errors.Is(err, service.ErrNotFound) }
func isConflict(err error) bool {
	return errors.Is(err, service.ErrInvalidState) || errors.Is(err, service.ErrConflict)
}
func isUpstream(err error) bool { return errors.Is(err, service.ErrUpstream) }
