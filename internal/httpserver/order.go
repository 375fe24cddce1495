package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hvaldes/tienda_api/internal/files"
	"github.com/hvaldes/tienda_api/internal/logging"
	"github.com/hvaldes/tienda_api/internal/middleware/auth"
	"github.com/hvaldes/tienda_api/internal/models"
	"github.com/hvaldes/tienda_api/internal/service"
	"github.com/hvaldes/tienda_api/internal/transport"
	"github.com/hvaldes/tienda_api/internal/util"
)

const maxReceiptSize = 5 * 1024 * 1024

var allowedReceiptExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".pdf": true,
}

type OrderHTTP struct {
	Svc   *service.OrderService
	Files *files.Store
}

func orderIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return serviceError(c, l, "get_order_error", err)
	}

	if !canAccessOrder(c, order.UserID) {
		return echo.NewHTTPError(http.StatusForbidden, "no access to this order")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	orders, total, err := h.Svc.ListOrders(ctx, page, size)
	if err != nil {
		return serviceError(c, l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{
			"page":  page,
			"size":  size,
			"total": total,
		},
	})
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	userID := auth.UserID(c)
	if userID == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}

	orders, err := h.Svc.ListOrdersByUser(ctx, *userID)
	if err != nil {
		return serviceError(c, l, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) OrdersByStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.by_status")

	orders, err := h.Svc.ListOrdersByStatus(ctx, models.OrderStatus(c.Param("status")))
	if err != nil {
		return serviceError(c, l, "orders_by_status_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) PendingReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pending_review")

	orders, err := h.Svc.ListOrdersByStatus(ctx, models.OrderStatusPaymentSubmitted)
	if err != nil {
		return serviceError(c, l, "pending_review_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// UploadReceipt accepts the customer's bank-transfer receipt. Type and
// size limits are enforced here, before the file store is touched.
func (h *OrderHTTP) UploadReceipt(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.upload_receipt")

	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	if allowed, err := h.Svc.CanUserAccessOrder(ctx, id, auth.UserID(c)); err != nil {
		return serviceError(c, l, "upload_receipt_error", err)
	} else if !allowed && auth.Role(c) != "admin" {
		return echo.NewHTTPError(http.StatusForbidden, "no access to this order")
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "receipt file required")
	}
	if fileHeader.Size > maxReceiptSize {
		return echo.NewHTTPError(http.StatusBadRequest, "receipt exceeds 5MB")
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedReceiptExts[ext] {
		return echo.NewHTTPError(http.StatusBadRequest, "only JPG, PNG or PDF receipts are accepted")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read receipt file")
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxReceiptSize+1))
	if err != nil || len(data) == 0 || len(data) > maxReceiptSize {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read receipt file")
	}

	url, err := h.Files.Save("receipts", data, ext)
	if err != nil {
		l.Error("upload_receipt_error", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "receipt storage unavailable")
	}

	order, err := h.Svc.UploadPaymentReceipt(ctx, id, url)
	if err != nil {
		return serviceError(c, l, "upload_receipt_error", err)
	}

	l.Info("upload_receipt_success", "orderID", order.ID)
	return c.JSON(http.StatusOK, map[string]string{
		"message":     "receipt uploaded, your order is now under review",
		"receipt_url": url,
	})
}

func (h *OrderHTTP) GetReceipt(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_receipt")

	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	if allowed, err := h.Svc.CanUserAccessOrder(ctx, id, auth.UserID(c)); err != nil {
		return serviceError(c, l, "get_receipt_error", err)
	} else if !allowed && auth.Role(c) != "admin" {
		return echo.NewHTTPError(http.StatusForbidden, "no access to this order")
	}

	url, err := h.Svc.GetReceiptURL(ctx, id)
	if err != nil {
		return serviceError(c, l, "get_receipt_error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"receipt_url": url})
}

func (h *OrderHTTP) ApprovePayment(c echo.Context) error {
	return h.adminAction(c, "order.approve_payment", func(ctx echo.Context, id uint, req transport.AdminAction) (*models.Order, error) {
		return h.Svc.ApprovePayment(ctx.Request().Context(), id, req.AdminNotes)
	})
}

func (h *OrderHTTP) RejectPayment(c echo.Context) error {
	return h.adminAction(c, "order.reject_payment", func(ctx echo.Context, id uint, req transport.AdminAction) (*models.Order, error) {
		return h.Svc.RejectPayment(ctx.Request().Context(), id, req.AdminNotes)
	})
}

func (h *OrderHTTP) MarkDelivered(c echo.Context) error {
	return h.adminAction(c, "order.mark_delivered", func(ctx echo.Context, id uint, req transport.AdminAction) (*models.Order, error) {
		return h.Svc.MarkDelivered(ctx.Request().Context(), id, req.AdminNotes)
	})
}

func (h *OrderHTTP) MarkShipped(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.mark_shipped")

	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req transport.ShippingInfo
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.MarkShipped(ctx, id, req.TrackingNumber, req.ShippingProvider, req.AdminNotes)
	if err != nil {
		return serviceError(c, l, "mark_shipped_error", err)
	}

	l.Info("mark_shipped_success", "orderID", order.ID)
	return c.JSON(http.StatusOK, map[string]string{"message": "order marked as shipped"})
}

func (h *OrderHTTP) adminAction(c echo.Context, handler string, fn func(echo.Context, uint, transport.AdminAction) (*models.Order, error)) error {
	l := logging.FromContext(c.Request().Context()).With("handler", handler)

	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req transport.AdminAction
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := fn(c, id, req)
	if err != nil {
		return serviceError(c, l, handler+"_error", err)
	}

	l.Info(handler+"_success", "orderID", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, map[string]any{
		"message": "order updated",
		"status":  order.Status,
	})
}

// serviceError maps the service sentinels onto HTTP codes. The webhook
// endpoint deliberately does not use this mapping.
func serviceError(c echo.Context, l *slog.Logger, event string, err error) error {
	code := http.StatusInternalServerError
	switch {
	case isValidation(err):
		code = http.StatusBadRequest
	case isNotFound(err):
		code = http.StatusNotFound
	case isConflict(err):
		code = http.StatusConflict
	case isUpstream(err):
		code = http.StatusBadGateway
	}

	if code >= 500 {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, err.Error())
}
