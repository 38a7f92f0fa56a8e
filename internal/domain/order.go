package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        int64       `json:"id"`
	BuyerID   string      `json:"buyerId"`
	Items     []OrderItem `json:"items"`
	Payment   PaymentInfo `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
}

// OrderItem freezes the product name and price at checkout time.
type OrderItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// LineTotal is UnitPrice * Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums all line totals.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}
