package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hvaldes/tienda_api/internal/logging"
	"github.com/hvaldes/tienda_api/internal/middleware/auth"
	"github.com/hvaldes/tienda_api/internal/service"
	"github.com/hvaldes/tienda_api/internal/transport"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.create")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	resp, err := h.Svc.CreateCheckout(ctx, req, auth.UserID(c))
	if err != nil {
		return serviceError(c, l, "create_checkout_error", err)
	}

	l.Info("create_checkout_success", "orderID", resp.OrderID)
	return c.JSON(http.StatusCreated, resp)
}

// Webhook is the gateway's notification endpoint. It answers 200 for
// notifications we cannot act on (unknown payment, already-terminal
// order) so the gateway does not retry forever; 400 is reserved for
// payloads we cannot even parse.
func (h *CheckoutHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.webhook")

	var note transport.WebhookNotification
	if err := c.Bind(&note); err != nil || note.Data.ID == "" {
		l.Warn("webhook_error", "status", 400, "reason", "invalid payload", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}

	err := h.Svc.ProcessPaymentWebhook(ctx, note.Data.ID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{"message": "webhook processed"})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidState):
		l.Warn("webhook_ignored", "paymentID", note.Data.ID, "reason", err.Error())
		return c.JSON(http.StatusOK, map[string]string{"message": "notification ignored"})
	default:
		// The gateway retries on 5xx; transient failures resolve that way.
		l.Error("webhook_error", "paymentID", note.Data.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "error processing webhook")
	}
}

// PaymentSuccess handles the browser redirect back from the gateway.
// The query carries the payment id, which goes through the same
// reconciliation path as a webhook.
func (h *CheckoutHTTP) PaymentSuccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.success")

	ref := c.QueryParam("external_reference")
	orderID, err := strconv.ParseUint(ref, 10, 32)
	if err != nil || orderID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order reference")
	}

	if paymentID := c.QueryParam("payment_id"); paymentID != "" {
		if err := h.Svc.ProcessPaymentWebhook(ctx, paymentID); err != nil {
			l.Warn("success_callback_reconcile_failed", "paymentID", paymentID, "error", err)
		}
	}

	order, err := h.Svc.GetOrderWithPayment(ctx, uint(orderID))
	if err != nil {
		return serviceError(c, l, "success_callback_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *CheckoutHTTP) PaymentFailure(c echo.Context) error {
	ref := c.QueryParam("external_reference")
	orderID, err := strconv.ParseUint(ref, 10, 32)
	if err != nil || orderID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order reference")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":  "payment cancelled",
		"order_id": orderID,
	})
}

func (h *CheckoutHTTP) GetOrderWithPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.get_order")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.Svc.GetOrderWithPayment(ctx, uint(id))
	if err != nil {
		return serviceError(c, l, "get_order_error", err)
	}

	if !canAccessOrder(c, order.UserID) {
		return echo.NewHTTPError(http.StatusForbidden, "no access to this order")
	}
	return c.JSON(http.StatusOK, order)
}

// canAccessOrder: admins see everything, owners see their own orders,
// guest orders are readable by whoever holds the id.
func canAccessOrder(c echo.Context, ownerID *uint) bool {
	if auth.Role(c) == "admin" {
		return true
	}
	if ownerID == nil {
		return true
	}
	userID := auth.UserID(c)
	return userID != nil && *userID == *ownerID
}
