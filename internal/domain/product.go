package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a perfume offered in the catalog.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	PictureURI    string          `json:"pictureUri,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Volume        int             `json:"volume"`
	DateDelivery  time.Time       `json:"dateDelivery"`
	BrandID       int64           `json:"brandId"`
	Brand         string          `json:"brand,omitempty"`
	GenderID      int64           `json:"genderId,omitempty"`
	Gender        string          `json:"gender,omitempty"`
	TypeID        int64           `json:"typeId,omitempty"`
	Type          string          `json:"type,omitempty"`
	ReleaseFormID int64           `json:"releaseFormId,omitempty"`
	ReleaseForm   string          `json:"releaseForm,omitempty"`
	CategoryID    int64           `json:"categoryId"`
	Category      string          `json:"category,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ProductFilter narrows catalog listings. Zero values mean "any".
type ProductFilter struct {
	BrandID       int64  `form:"brandId"`
	CategoryID    int64  `form:"categoryId"`
	GenderID      int64  `form:"genderId"`
	TypeID        int64  `form:"typeId"`
	ReleaseFormID int64  `form:"releaseFormId"`
	Query         string `form:"q"`
}

// PageRequest is a 1-based page request.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the row offset for the page, clamping invalid input.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
	Total    int       `json:"total"`
}
