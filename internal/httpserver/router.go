package httpserver

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/logger"
	basketsvc "perfumeshop/internal/service/basket"
	buyersvc "perfumeshop/internal/service/buyer"
	identitysvc "perfumeshop/internal/service/identity"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type BasketService interface {
	AddItemToBasket(ctx context.Context, buyerID string, productID int64, qty int) (*domain.BasketItem, error)
	GetBasket(ctx context.Context, buyerID string) (*domain.Basket, error)
	GetBasketID(ctx context.Context, buyerID string) (int64, error)
	GetProductID(ctx context.Context, basketItemID int64) (int64, error)
	UpdateItemQuantity(ctx context.Context, basketItemID int64, qty int) (*domain.BasketItem, error)
	DeleteItem(ctx context.Context, basketItemID int64) (*domain.BasketItem, error)
	DeleteBasket(ctx context.Context, basketID int64) error
	TransferBasket(ctx context.Context, anonymousID, userID string) error
	BasketToStockRatio(ctx context.Context, buyerID string, productID int64, qty int) (basketsvc.Availability, error)
}

type CatalogService interface {
	PerPage() int
	ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	Lookups(ctx context.Context) (map[domain.LookupKind][]domain.Lookup, error)
	UpsertLookup(ctx context.Context, kind domain.LookupKind, name string) (*domain.Lookup, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type IdentityService interface {
	Register(ctx context.Context, in identitysvc.RegisterInput) (*domain.User, error)
	PasswordSignIn(ctx context.Context, email, password string, remember bool) (*domain.User, *identitysvc.Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	SignOut(ctx context.Context, token string) error
}

type OrderService interface {
	Checkout(ctx context.Context, buyerID string) (*domain.Order, error)
	ListOrders(ctx context.Context, buyerID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, buyerID string, id int64) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, id int64, at time.Time) (*domain.Order, error)
	FailPayment(ctx context.Context, id int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (*domain.Order, error)
}

type BuyerService interface {
	Resolve(userID, cookieValue string) buyersvc.Identity
	CookieExpiry(now time.Time) time.Time
}

// Deps bundles the services the handlers call.
type Deps struct {
	BasketSvc   BasketService
	CatalogSvc  CatalogService
	IdentitySvc IdentityService
	OrderSvc    OrderService
	BuyerSvc    BuyerService
}

// Options carries cookie and CORS settings.
type Options struct {
	BasketCookie     string
	AuthCookie       string
	CookieSecure     bool
	CORSAllowOrigins []string
}

func (o Options) withDefaults() Options {
	if o.BasketCookie == "" {
		o.BasketCookie = "PerfumeShop.Basket"
	}
	if o.AuthCookie == "" {
		o.AuthCookie = "PerfumeShop.Auth"
	}
	return o
}

type handlers struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// buildRouter wires routes for the storefront.
func buildRouter(log *zap.Logger, db Pinger, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.BasketSvc == nil || deps.CatalogSvc == nil || deps.IdentitySvc == nil || deps.OrderSvc == nil || deps.BuyerSvc == nil {
		return nil, fmt.Errorf("httpserver: missing service dependency")
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	registerValidators()

	h := &handlers{deps: deps, opts: opts.withDefaults(), logger: log, now: time.Now}

	router := gin.New()
	router.Use(logger.GinMiddleware(log), logger.Recovery(log))
	if len(opts.CORSAllowOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = opts.CORSAllowOrigins
		corsCfg.AllowCredentials = true
		router.Use(cors.New(corsCfg))
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	site := router.Group("/")
	site.Use(h.authMiddleware(), h.buyerMiddleware())

	site.GET("/", h.catalogIndex)
	site.GET("/catalog", h.catalogIndex)
	site.GET("/catalog/:id", h.catalogDetails)

	shop := site.Group("/shop")
	shop.GET("/basket", h.basketIndex)
	shop.POST("/basket/add", h.addToBasket)
	shop.POST("/basket/items/:id", h.updateBasketItem)
	shop.POST("/basket/items/:id/delete", h.deleteBasketItem)
	shop.POST("/basket/delete", h.deleteBasket)
	shop.POST("/checkout", h.requireAuth(), h.checkout)

	orders := site.Group("/orders", h.requireAuth())
	orders.GET("", h.listOrders)
	orders.GET("/:id", h.orderDetails)
	orders.POST("/:id/cancel", h.cancelOrder)

	account := site.Group("/identity/account")
	account.GET("/login", h.loginPage)
	account.POST("/login", h.login)
	account.GET("/lockout", h.lockoutPage)
	account.POST("/logout", h.logout)
	account.GET("/register", h.registerPage)
	account.POST("/register", h.register)

	admin := site.Group("/admin", h.requireAuth(), h.requireAdmin())
	admin.GET("/products", h.adminProducts)
	admin.GET("/products/new", h.adminNewProduct)
	admin.POST("/products", h.adminCreateProduct)
	admin.GET("/products/:id/edit", h.adminEditProduct)
	admin.POST("/products/:id", h.adminUpdateProduct)
	admin.POST("/products/:id/delete", h.adminDeleteProduct)
	admin.POST("/lookups", h.adminUpsertLookup)
	admin.POST("/orders/:id/payment", h.adminOrderPayment)

	router.NoRoute(h.authMiddleware(), func(c *gin.Context) {
		h.renderError(c, 404, "Page not found.")
	})

	return router, nil
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"add":   func(a, b int) int { return a + b },
		"lower": strings.ToLower,
	}).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
