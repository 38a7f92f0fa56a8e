package httpserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"perfumeshop/internal/domain"
	basketsvc "perfumeshop/internal/service/basket"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CatalogProductViewModel is the product projection used by catalog pages
// and the admin product form.
type CatalogProductViewModel struct {
	ID            int64  `form:"-"`
	Name          string `form:"name" binding:"required,max=200"`
	Description   string `form:"description" binding:"required"`
	PictureURI    string `form:"pictureUri" binding:"omitempty,max=500"`
	Price         string `form:"price" binding:"required,price"`
	Stock         int    `form:"stock" binding:"gte=0"`
	Volume        int    `form:"volume" binding:"gte=0"`
	DateDelivery  string `form:"dateDelivery" binding:"omitempty,datetime=2006-01-02"`
	BrandID       int64  `form:"brandId" binding:"required,gt=0"`
	Brand         string `form:"-"`
	GenderID      int64  `form:"genderId" binding:"gte=0"`
	Gender        string `form:"-"`
	TypeID        int64  `form:"typeId" binding:"gte=0"`
	Type          string `form:"-"`
	ReleaseFormID int64  `form:"releaseFormId" binding:"gte=0"`
	ReleaseForm   string `form:"-"`
	CategoryID    int64  `form:"categoryId" binding:"required,gt=0"`
	Category      string `form:"-"`
	Stocked       bool   `form:"-"`
}

func newCatalogProductViewModel(p domain.Product) CatalogProductViewModel {
	vm := CatalogProductViewModel{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		PictureURI:    p.PictureURI,
		Price:         p.Price.StringFixed(2),
		Stock:         p.Stock,
		Volume:        p.Volume,
		BrandID:       p.BrandID,
		Brand:         p.Brand,
		GenderID:      p.GenderID,
		Gender:        p.Gender,
		TypeID:        p.TypeID,
		Type:          p.Type,
		ReleaseFormID: p.ReleaseFormID,
		ReleaseForm:   p.ReleaseForm,
		CategoryID:    p.CategoryID,
		Category:      p.Category,
		Stocked:       p.Stock > 0,
	}
	if !p.DateDelivery.IsZero() {
		vm.DateDelivery = p.DateDelivery.Format("2006-01-02")
	}
	return vm
}

// toProduct converts a bound form back to a domain product.
func (vm CatalogProductViewModel) toProduct() (domain.Product, error) {
	price, err := decimal.NewFromString(vm.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("price: %w", err)
	}
	p := domain.Product{
		ID:            vm.ID,
		Name:          strings.TrimSpace(vm.Name),
		Description:   strings.TrimSpace(vm.Description),
		PictureURI:    strings.TrimSpace(vm.PictureURI),
		Price:         price.Round(2),
		Stock:         vm.Stock,
		Volume:        vm.Volume,
		BrandID:       vm.BrandID,
		GenderID:      vm.GenderID,
		TypeID:        vm.TypeID,
		ReleaseFormID: vm.ReleaseFormID,
		CategoryID:    vm.CategoryID,
	}
	if vm.DateDelivery != "" {
		if p.DateDelivery, err = time.Parse("2006-01-02", vm.DateDelivery); err != nil {
			return domain.Product{}, fmt.Errorf("dateDelivery: %w", err)
		}
	}
	return p, nil
}

// PagedInfoViewModel describes the position of a page within a listing.
type PagedInfoViewModel struct {
	PageID          int
	TotalPages      int
	ItemsPerPage    int
	TotalItems      int
	HasPreviousPage bool
	HasNextPage     bool
}

// NewPagedInfo computes paging flags for a 1-based page.
func NewPagedInfo(page, perPage, total int) PagedInfoViewModel {
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := (total + perPage - 1) / perPage
	return PagedInfoViewModel{
		PageID:          page,
		TotalPages:      totalPages,
		ItemsPerPage:    perPage,
		TotalItems:      total,
		HasPreviousPage: page > 1,
		HasNextPage:     page < totalPages,
	}
}

type BasketItemViewModel struct {
	ID          int64
	ProductID   int64
	ProductName string
	PictureURI  string
	UnitPrice   decimal.Decimal
	Quantity    int
	Stock       int
}

func (i BasketItemViewModel) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type BasketViewModel struct {
	ID      int64
	BuyerID string
	Items   []BasketItemViewModel
}

func (b BasketViewModel) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (b BasketViewModel) TotalQuantity() int {
	n := 0
	for _, it := range b.Items {
		n += it.Quantity
	}
	return n
}

// AvailabilityViewModel is the outcome of a stock check for an add request.
type AvailabilityViewModel struct {
	IsAvailable bool
	ProductName string
	BasketQty   int
	StockQty    int
	Remaining   int
}

func newAvailabilityViewModel(a basketsvc.Availability) AvailabilityViewModel {
	return AvailabilityViewModel(a)
}

// Message renders the flash text shown after an add attempt.
func (a AvailabilityViewModel) Message(requested int) string {
	if a.IsAvailable {
		return fmt.Sprintf("Product %q added to cart in quantity %d.", a.ProductName, requested)
	}
	return fmt.Sprintf("Product %q already added to cart in quantity %d. You can add no more than %d.",
		a.ProductName, a.BasketQty-requested, a.Remaining)
}

type loginForm struct {
	Email      string `form:"email" binding:"required,email"`
	Password   string `form:"password" binding:"required"`
	RememberMe bool   `form:"rememberMe"`
	ReturnURL  string `form:"returnUrl"`
}

type registerForm struct {
	Email           string `form:"email" binding:"required,email"`
	UserName        string `form:"userName" binding:"omitempty,max=100"`
	Password        string `form:"password" binding:"required,min=8"`
	ConfirmPassword string `form:"confirmPassword" binding:"required,eqfield=Password"`
}

type addToBasketForm struct {
	ProductID int64 `form:"productId" binding:"required,gt=0"`
	Quantity  int   `form:"quantity" binding:"gte=0"`
}

type lookupForm struct {
	Kind string `form:"kind" binding:"required,oneof=brand category gender type release_form"`
	Name string `form:"name" binding:"required,max=100"`
}

var (
	minPrice = decimal.NewFromInt(1)
	maxPrice = decimal.NewFromInt(99999999)
)

// registerValidators adds the custom "price" rule to gin's validator.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		if err != nil {
			return false
		}
		return !d.LessThan(minPrice) && !d.GreaterThan(maxPrice)
	})
}

var fieldLabels = map[string]string{
	"BrandID":         "Brand",
	"CategoryID":      "Category",
	"GenderID":        "Gender",
	"TypeID":          "Type",
	"ReleaseFormID":   "ReleaseForm",
	"PictureURI":      "Picture Uri",
	"DateDelivery":    "Date Delivery",
	"ConfirmPassword": "Confirm password",
	"UserName":        "User name",
}

// fieldErrors maps a binding error to per-field messages keyed by struct
// field name. Non-validation errors land under the empty key.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[""] = "The submitted form is invalid."
		return out
	}
	for _, fe := range verrs {
		label := fe.Field()
		if l, ok := fieldLabels[label]; ok {
			label = l
		}
		out[fe.Field()] = fieldMessage(label, fe)
	}
	return out
}

func fieldMessage(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if strings.HasSuffix(fe.Field(), "ID") {
			return fmt.Sprintf("Value %s from the list must be selected!", label)
		}
		return fmt.Sprintf("Value %s must not be empty!", label)
	case "gt":
		return fmt.Sprintf("Value %s from the list must be selected!", label)
	case "price":
		return fmt.Sprintf("Value for %s must be between 1 and 99999999.", label)
	case "gte":
		return fmt.Sprintf("Value for %s must be between %s and 2147483647.", label, fe.Param())
	case "max":
		return fmt.Sprintf("Value %s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("Value %s must be at least %s characters.", label, fe.Param())
	case "email":
		return fmt.Sprintf("Value %s is not a valid e-mail address.", label)
	case "eqfield":
		return "The password and confirmation password do not match."
	case "datetime":
		return fmt.Sprintf("Value %s must be a date (YYYY-MM-DD).", label)
	default:
		return fmt.Sprintf("Value %s is invalid.", label)
	}
}
