package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"perfumeshop/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *handlers) catalogIndex(c *gin.Context) {
	var filter domain.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.renderError(c, http.StatusBadRequest, "Invalid catalog filter.")
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	ctx := c.Request.Context()
	result, err := h.deps.CatalogSvc.ListProducts(ctx, filter, domain.PageRequest{Page: page, PerPage: h.deps.CatalogSvc.PerPage()})
	if err != nil {
		h.serverError(c, "list products", err)
		return
	}
	lookups, err := h.deps.CatalogSvc.Lookups(ctx)
	if err != nil {
		h.serverError(c, "list lookups", err)
		return
	}

	products := make([]CatalogProductViewModel, 0, len(result.Products))
	for _, p := range result.Products {
		products = append(products, newCatalogProductViewModel(p))
	}
	paged := NewPagedInfo(result.Page, result.PerPage, result.Total)
	h.render(c, http.StatusOK, "catalog", gin.H{
		"Title":    "Catalog",
		"Products": products,
		"Paged":    paged,
		"PrevURL":  pageURL(c, paged.PageID-1),
		"NextURL":  pageURL(c, paged.PageID+1),
		"Filter":   filter,
		"Lookups":  lookupsByName(lookups),
	})
}

func (h *handlers) catalogDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(c, http.StatusNotFound, "Product not found.")
		return
	}
	p, err := h.deps.CatalogSvc.GetProduct(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		h.renderError(c, http.StatusNotFound, "Product not found.")
		return
	}
	if err != nil {
		h.serverError(c, "get product", err)
		return
	}
	h.render(c, http.StatusOK, "product", gin.H{
		"Title":   p.Name,
		"Product": newCatalogProductViewModel(*p),
	})
}

// lookupsByName re-keys lookup lists by plain string for template access.
func lookupsByName(in map[domain.LookupKind][]domain.Lookup) map[string][]domain.Lookup {
	out := make(map[string][]domain.Lookup, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

// pageURL returns the current URL with the page query parameter replaced.
func pageURL(c *gin.Context, page int) string {
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	return c.Request.URL.Path + "?" + q.Encode()
}
