package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"perfumeshop/internal/domain"
	catalogsvc "perfumeshop/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

const adminProductsPath = "/admin/products"

func (h *handlers) adminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	result, err := h.deps.CatalogSvc.ListProducts(c.Request.Context(), domain.ProductFilter{Query: c.Query("q")},
		domain.PageRequest{Page: page, PerPage: h.deps.CatalogSvc.PerPage()})
	if err != nil {
		h.serverError(c, "admin list products", err)
		return
	}
	products := make([]CatalogProductViewModel, 0, len(result.Products))
	for _, p := range result.Products {
		products = append(products, newCatalogProductViewModel(p))
	}
	h.render(c, http.StatusOK, "admin_products", gin.H{
		"Title":    "Manage products",
		"Products": products,
		"Paged":    NewPagedInfo(result.Page, result.PerPage, result.Total),
		"Query":    c.Query("q"),
	})
}

func (h *handlers) adminNewProduct(c *gin.Context) {
	h.renderProductForm(c, http.StatusOK, CatalogProductViewModel{}, nil)
}

func (h *handlers) adminEditProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound, "Product not found.")
		return
	}
	p, err := h.deps.CatalogSvc.GetProduct(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		h.renderError(c, http.StatusNotFound, "Product not found.")
		return
	}
	if err != nil {
		h.serverError(c, "admin get product", err)
		return
	}
	h.renderProductForm(c, http.StatusOK, newCatalogProductViewModel(*p), nil)
}

func (h *handlers) adminCreateProduct(c *gin.Context) {
	h.saveProduct(c, 0)
}

func (h *handlers) adminUpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound, "Product not found.")
		return
	}
	h.saveProduct(c, id)
}

func (h *handlers) saveProduct(c *gin.Context, id int64) {
	var vm CatalogProductViewModel
	if err := c.ShouldBind(&vm); err != nil {
		vm.ID = id
		h.renderProductForm(c, http.StatusUnprocessableEntity, vm, fieldErrors(err))
		return
	}
	vm.ID = id
	p, err := vm.toProduct()
	if err != nil {
		h.renderProductForm(c, http.StatusUnprocessableEntity, vm, map[string]string{"": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var saved *domain.Product
	if id == 0 {
		saved, err = h.deps.CatalogSvc.CreateProduct(ctx, p)
	} else {
		saved, err = h.deps.CatalogSvc.UpdateProduct(ctx, p)
	}
	switch {
	case errors.Is(err, catalogsvc.ErrInvalidProduct):
		h.renderProductForm(c, http.StatusUnprocessableEntity, vm, map[string]string{"": err.Error()})
		return
	case errors.Is(err, domain.ErrAlreadyExists):
		h.renderProductForm(c, http.StatusConflict, vm, map[string]string{"Name": "A product with this name already exists for the brand."})
		return
	case errors.Is(err, domain.ErrNotFound):
		h.renderError(c, http.StatusNotFound, "Product not found.")
		return
	case err != nil:
		h.serverError(c, "admin save product", err)
		return
	}
	h.redirectWithFlash(c, adminProductsPath, "success", fmt.Sprintf("Product %q saved.", saved.Name))
}

func (h *handlers) adminDeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound, "Product not found.")
		return
	}
	err := h.deps.CatalogSvc.DeleteProduct(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		h.redirectWithFlash(c, adminProductsPath, "error", "Product not found.")
		return
	}
	if err != nil {
		h.serverError(c, "admin delete product", err)
		return
	}
	h.redirectWithFlash(c, adminProductsPath, "success", "Product deleted.")
}

func (h *handlers) adminUpsertLookup(c *gin.Context) {
	back := refererTarget(c, adminProductsPath)
	var form lookupForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirectWithFlash(c, back, "error", "Lookup kind and name are required.")
		return
	}
	l, err := h.deps.CatalogSvc.UpsertLookup(c.Request.Context(), domain.LookupKind(form.Kind), form.Name)
	if errors.Is(err, catalogsvc.ErrInvalidLookup) {
		h.redirectWithFlash(c, back, "error", err.Error())
		return
	}
	if err != nil {
		h.serverError(c, "admin upsert lookup", err)
		return
	}
	h.redirectWithFlash(c, back, "success", fmt.Sprintf("%s %q saved.", l.Kind, l.Name))
}

// adminOrderPayment records a payment outcome reported by the provider.
func (h *handlers) adminOrderPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound, "Order not found.")
		return
	}
	ctx := c.Request.Context()
	var err error
	switch c.PostForm("status") {
	case "paid":
		_, err = h.deps.OrderSvc.ConfirmPayment(ctx, id, h.now())
	case "failed":
		_, err = h.deps.OrderSvc.FailPayment(ctx, id)
	case "cancelled":
		_, err = h.deps.OrderSvc.CancelOrder(ctx, id)
	default:
		h.redirectWithFlash(c, adminProductsPath, "error", "Unknown payment status.")
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.redirectWithFlash(c, adminProductsPath, "error", "Order not found.")
	case errors.Is(err, domain.ErrPaymentState):
		h.redirectWithFlash(c, adminProductsPath, "error", err.Error())
	case err != nil:
		h.serverError(c, "admin order payment", err)
	default:
		h.redirectWithFlash(c, adminProductsPath, "success", fmt.Sprintf("Order #%d updated.", id))
	}
}

func (h *handlers) renderProductForm(c *gin.Context, status int, vm CatalogProductViewModel, errs map[string]string) {
	lookups, err := h.deps.CatalogSvc.Lookups(c.Request.Context())
	if err != nil {
		h.serverError(c, "admin list lookups", err)
		return
	}
	if errs == nil {
		errs = map[string]string{}
	}
	title := "New product"
	if vm.ID != 0 {
		title = "Edit " + vm.Name
	}
	h.render(c, status, "admin_product_form", gin.H{
		"Title":   title,
		"Product": vm,
		"Lookups": lookupsByName(lookups),
		"Errors":  errs,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
