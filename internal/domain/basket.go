package domain

import "time"

// Basket is a buyer's in-progress shopping cart. A buyer owns at most one basket.
type Basket struct {
	ID        int64        `json:"id"`
	BuyerID   string       `json:"buyerId"`
	Items     []BasketItem `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
}

type BasketItem struct {
	ID        int64     `json:"id"`
	BasketID  int64     `json:"basketId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddItem merges qty into the line for productID, appending a new line when
// the product is not in the basket yet. It returns the resulting line.
func (b *Basket) AddItem(productID int64, qty int) (BasketItem, error) {
	if qty < 1 {
		return BasketItem{}, ErrInvalidQuantity
	}
	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			b.Items[i].Quantity += qty
			return b.Items[i], nil
		}
	}
	item := BasketItem{BasketID: b.ID, ProductID: productID, Quantity: qty}
	b.Items = append(b.Items, item)
	return item, nil
}

// QuantityOf returns how many units of productID the basket holds.
func (b *Basket) QuantityOf(productID int64) int {
	if b == nil {
		return 0
	}
	for _, it := range b.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// TotalQuantity sums quantities over all lines.
func (b *Basket) TotalQuantity() int {
	if b == nil {
		return 0
	}
	total := 0
	for _, it := range b.Items {
		total += it.Quantity
	}
	return total
}

// ItemByID returns the line with the given id.
func (b *Basket) ItemByID(id int64) (BasketItem, bool) {
	for _, it := range b.Items {
		if it.ID == id {
			return it, true
		}
	}
	return BasketItem{}, false
}
