package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidQuantity is returned for basket quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInsufficientStock is returned when stock cannot cover a requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmptyBasket is returned when checking out a basket without items.
	ErrEmptyBasket = errors.New("basket is empty")
)
