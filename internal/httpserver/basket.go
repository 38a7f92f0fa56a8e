package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"perfumeshop/internal/domain"
	basketsvc "perfumeshop/internal/service/basket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const basketPath = "/shop/basket"

func (h *handlers) basketIndex(c *gin.Context) {
	ctx := c.Request.Context()
	buyer := currentBuyer(c)
	vm := BasketViewModel{BuyerID: buyer.ID}

	b, err := h.deps.BasketSvc.GetBasket(ctx, buyer.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		h.serverError(c, "get basket", err)
		return
	default:
		vm.ID = b.ID
		for _, it := range b.Items {
			p, err := h.deps.CatalogSvc.GetProduct(ctx, it.ProductID)
			if errors.Is(err, domain.ErrNotFound) {
				h.logger.Warn("basket line references missing product",
					zap.Int64("item_id", it.ID), zap.Int64("product_id", it.ProductID))
				continue
			}
			if err != nil {
				h.serverError(c, "get basket product", err)
				return
			}
			vm.Items = append(vm.Items, BasketItemViewModel{
				ID:          it.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				PictureURI:  p.PictureURI,
				UnitPrice:   p.Price,
				Quantity:    it.Quantity,
				Stock:       p.Stock,
			})
		}
	}
	h.render(c, http.StatusOK, "basket", gin.H{"Title": "Basket", "Basket": vm})
}

// addToBasket checks stock before adding and reports the outcome as a flash
// message on the page the request came from.
func (h *handlers) addToBasket(c *gin.Context) {
	back := refererTarget(c, basketPath)
	var form addToBasketForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirectWithFlash(c, back, "error", "Invalid product or quantity.")
		return
	}
	if form.Quantity == 0 {
		form.Quantity = 1
	}

	ctx := c.Request.Context()
	buyer := currentBuyer(c)
	av, err := h.deps.BasketSvc.BasketToStockRatio(ctx, buyer.ID, form.ProductID, form.Quantity)
	if errors.Is(err, domain.ErrNotFound) {
		h.redirectWithFlash(c, back, "error", "Product not found.")
		return
	}
	if err != nil {
		h.serverError(c, "stock check", err)
		return
	}
	vm := newAvailabilityViewModel(av)
	if !vm.IsAvailable {
		h.redirectWithFlash(c, back, "error", vm.Message(form.Quantity))
		return
	}
	if _, err := h.deps.BasketSvc.AddItemToBasket(ctx, buyer.ID, form.ProductID, form.Quantity); err != nil {
		h.serverError(c, "add to basket", err)
		return
	}
	h.redirectWithFlash(c, back, "success", vm.Message(form.Quantity))
}

func (h *handlers) updateBasketItem(c *gin.Context) {
	itemID, ok := h.ownedItem(c)
	if !ok {
		return
	}
	qty, err := strconv.Atoi(c.PostForm("quantity"))
	if err != nil || qty < 1 {
		h.redirectWithFlash(c, basketPath, "error", "Quantity must be at least 1.")
		return
	}

	_, err = h.deps.BasketSvc.UpdateItemQuantity(c.Request.Context(), itemID, qty)
	var limit *basketsvc.StockLimitError
	switch {
	case errors.As(err, &limit):
		h.redirectWithFlash(c, basketPath, "error",
			fmt.Sprintf("Product %q: you can add no more than %d.", limit.ProductName, limit.Stock))
		return
	case err != nil:
		h.serverError(c, "update basket item", err)
		return
	}
	h.redirectWithFlash(c, basketPath, "success", "Basket updated.")
}

func (h *handlers) deleteBasketItem(c *gin.Context) {
	itemID, ok := h.ownedItem(c)
	if !ok {
		return
	}
	if _, err := h.deps.BasketSvc.DeleteItem(c.Request.Context(), itemID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.serverError(c, "delete basket item", err)
		return
	}
	h.redirectWithFlash(c, basketPath, "success", "Item removed from basket.")
}

func (h *handlers) deleteBasket(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := h.deps.BasketSvc.GetBasketID(ctx, currentBuyer(c).ID)
	if errors.Is(err, domain.ErrNotFound) {
		c.Redirect(http.StatusSeeOther, basketPath)
		return
	}
	if err != nil {
		h.serverError(c, "get basket id", err)
		return
	}
	if err := h.deps.BasketSvc.DeleteBasket(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.serverError(c, "delete basket", err)
		return
	}
	h.redirectWithFlash(c, basketPath, "success", "Basket cleared.")
}

// ownedItem parses the :id param and checks the line belongs to the
// current buyer's basket. It writes the response when it returns false.
func (h *handlers) ownedItem(c *gin.Context) (int64, bool) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		h.redirectWithFlash(c, basketPath, "error", "Basket item not found.")
		return 0, false
	}
	b, err := h.deps.BasketSvc.GetBasket(c.Request.Context(), currentBuyer(c).ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.serverError(c, "get basket", err)
		return 0, false
	}
	if b == nil {
		h.redirectWithFlash(c, basketPath, "error", "Basket item not found.")
		return 0, false
	}
	if _, ok := b.ItemByID(itemID); !ok {
		h.redirectWithFlash(c, basketPath, "error", "Basket item not found.")
		return 0, false
	}
	return itemID, true
}
