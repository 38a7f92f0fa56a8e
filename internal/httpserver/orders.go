package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"perfumeshop/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *handlers) checkout(c *gin.Context) {
	user := currentUser(c)
	o, err := h.deps.OrderSvc.Checkout(c.Request.Context(), user.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEmptyBasket):
		h.redirectWithFlash(c, basketPath, "error", "Your basket is empty.")
		return
	case errors.Is(err, domain.ErrInsufficientStock):
		h.redirectWithFlash(c, basketPath, "error", "Some products are no longer available in the requested quantity.")
		return
	case err != nil:
		h.serverError(c, "checkout", err)
		return
	}
	h.redirectWithFlash(c, fmt.Sprintf("/orders/%d", o.ID), "success", "Thank you! Your order has been placed.")
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListOrders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.serverError(c, "list orders", err)
		return
	}
	h.render(c, http.StatusOK, "orders", gin.H{"Title": "My orders", "Orders": orders})
}

func (h *handlers) orderDetails(c *gin.Context) {
	o, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "order", gin.H{"Title": fmt.Sprintf("Order #%d", o.ID), "Order": o})
}

func (h *handlers) cancelOrder(c *gin.Context) {
	o, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	target := fmt.Sprintf("/orders/%d", o.ID)
	_, err := h.deps.OrderSvc.CancelOrder(c.Request.Context(), o.ID)
	if errors.Is(err, domain.ErrPaymentState) {
		h.redirectWithFlash(c, target, "error", "This order can no longer be cancelled.")
		return
	}
	if err != nil {
		h.serverError(c, "cancel order", err)
		return
	}
	h.redirectWithFlash(c, target, "success", "Order cancelled.")
}

func (h *handlers) ownedOrder(c *gin.Context) (*domain.Order, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(c, http.StatusNotFound, "Order not found.")
		return nil, false
	}
	o, err := h.deps.OrderSvc.GetOrder(c.Request.Context(), currentUser(c).ID, id)
	if errors.Is(err, domain.ErrNotFound) {
		h.renderError(c, http.StatusNotFound, "Order not found.")
		return nil, false
	}
	if err != nil {
		h.serverError(c, "get order", err)
		return nil, false
	}
	return o, true
}
