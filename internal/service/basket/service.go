package basket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/uow"

	"go.uber.org/zap"
)

// ErrBuyerRequired is returned when an operation is called without a buyer id.
var ErrBuyerRequired = errors.New("buyer id required")

// Availability is the result of comparing a requested quantity with the
// product stock left after what the buyer already has in the basket.
type Availability struct {
	IsAvailable bool
	ProductName string
	// BasketQty is the quantity the basket would hold after the add.
	BasketQty int
	StockQty  int
	Remaining int
}

// Service implements basket use cases. Every call runs in one unit of work.
type Service struct {
	uow    uow.UnitOfWork
	logger *zap.Logger
}

func New(u uow.UnitOfWork, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{uow: u, logger: logger.Named("basket")}
}

// AddItemToBasket adds qty units of the product to the buyer's basket,
// creating the basket on first use.
func (s *Service) AddItemToBasket(ctx context.Context, buyerID string, productID int64, qty int) (*domain.BasketItem, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, ErrBuyerRequired
	}
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var item *domain.BasketItem
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if _, err := repos.Products().GetByID(ctx, productID); err != nil {
			return fmt.Errorf("load product %d: %w", productID, err)
		}
		b, err := s.getOrCreate(ctx, repos, buyerID)
		if err != nil {
			return err
		}
		item, err = repos.Baskets().AddItem(ctx, b.ID, productID, qty)
		if err != nil {
			return fmt.Errorf("add item: %w", err)
		}
		s.logger.Info("basket updated",
			zap.Int64("basket_id", b.ID),
			zap.Int64("product_id", productID),
			zap.Int("quantity", item.Quantity))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetBasket returns the buyer's basket or ErrNotFound.
func (s *Service) GetBasket(ctx context.Context, buyerID string) (*domain.Basket, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, ErrBuyerRequired
	}
	var b *domain.Basket
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		b, err = repos.Baskets().GetByBuyer(ctx, buyerID)
		return err
	})
	return b, err
}

func (s *Service) GetOrCreateBasket(ctx context.Context, buyerID string) (*domain.Basket, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, ErrBuyerRequired
	}
	var b *domain.Basket
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		b, err = s.getOrCreate(ctx, repos, buyerID)
		return err
	})
	return b, err
}

func (s *Service) GetBasketID(ctx context.Context, buyerID string) (int64, error) {
	b, err := s.GetBasket(ctx, buyerID)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

func (s *Service) GetProductID(ctx context.Context, basketItemID int64) (int64, error) {
	var productID int64
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		it, err := repos.Baskets().GetItem(ctx, basketItemID)
		if err != nil {
			return err
		}
		productID = it.ProductID
		return nil
	})
	return productID, err
}

// StockLimitError is returned when a basket line is set above the stock
// the product has left.
type StockLimitError struct {
	ProductName string
	Stock       int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("product %q: no more than %d available", e.ProductName, e.Stock)
}

func (e *StockLimitError) Unwrap() error { return domain.ErrInsufficientStock }

// UpdateItemQuantity sets the quantity of a basket line. The quantity is
// checked against the product's current stock in the same unit of work.
func (s *Service) UpdateItemQuantity(ctx context.Context, basketItemID int64, qty int) (*domain.BasketItem, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	var item *domain.BasketItem
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		it, err := repos.Baskets().GetItem(ctx, basketItemID)
		if err != nil {
			return err
		}
		p, err := repos.Products().GetByID(ctx, it.ProductID)
		if err != nil {
			return fmt.Errorf("load product %d: %w", it.ProductID, err)
		}
		if qty > p.Stock {
			return &StockLimitError{ProductName: p.Name, Stock: p.Stock}
		}
		item, err = repos.Baskets().SetItemQuantity(ctx, basketItemID, qty)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update basket item %d: %w", basketItemID, err)
	}
	s.logger.Info("basket item quantity updated", zap.Int64("item_id", basketItemID), zap.Int("quantity", qty))
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, basketItemID int64) (*domain.BasketItem, error) {
	var item *domain.BasketItem
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		item, err = repos.Baskets().DeleteItem(ctx, basketItemID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete basket item %d: %w", basketItemID, err)
	}
	s.logger.Info("basket item deleted", zap.Int64("item_id", item.ID), zap.Int64("basket_id", item.BasketID))
	return item, nil
}

// DeleteBasket removes the basket and, by cascade, its items.
func (s *Service) DeleteBasket(ctx context.Context, basketID int64) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Baskets().Delete(ctx, basketID)
	})
	if err != nil {
		return fmt.Errorf("delete basket %d: %w", basketID, err)
	}
	s.logger.Info("basket deleted", zap.Int64("basket_id", basketID))
	return nil
}

// TransferBasket moves the anonymous buyer's basket to the user. When the
// user has no basket the anonymous one is renamed; otherwise quantities are
// summed per product into the user's basket and the anonymous one is removed.
func (s *Service) TransferBasket(ctx context.Context, anonymousID, userID string) error {
	anonymousID = strings.TrimSpace(anonymousID)
	userID = strings.TrimSpace(userID)
	if anonymousID == "" || userID == "" {
		return ErrBuyerRequired
	}
	if anonymousID == userID {
		return nil
	}

	return s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		// A stale cookie can still carry another account's id.
		if _, err := repos.Users().GetByID(ctx, anonymousID); err == nil {
			s.logger.Warn("refusing to merge a registered user's basket",
				zap.String("from_buyer_id", anonymousID), zap.String("to_buyer_id", userID))
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		baskets := repos.Baskets()
		anon, err := baskets.GetByBuyer(ctx, anonymousID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := baskets.GetByBuyer(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			if err := baskets.ReassignBuyer(ctx, anon.ID, userID); err != nil {
				return fmt.Errorf("reassign basket %d: %w", anon.ID, err)
			}
			s.logger.Info("basket transferred", zap.Int64("basket_id", anon.ID), zap.String("buyer_id", userID))
			return nil
		}
		if err != nil {
			return err
		}

		for _, it := range anon.Items {
			if _, err := baskets.AddItem(ctx, target.ID, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("merge item %d: %w", it.ID, err)
			}
		}
		if err := baskets.Delete(ctx, anon.ID); err != nil {
			return fmt.Errorf("delete anonymous basket %d: %w", anon.ID, err)
		}
		s.logger.Info("basket merged",
			zap.Int64("from_basket_id", anon.ID),
			zap.Int64("to_basket_id", target.ID),
			zap.Int("items", len(anon.Items)))
		return nil
	})
}

// BasketToStockRatio reports whether qty more units of the product fit in
// the stock left after the buyer's current basket quantity.
func (s *Service) BasketToStockRatio(ctx context.Context, buyerID string, productID int64, qty int) (Availability, error) {
	if qty < 1 {
		return Availability{}, domain.ErrInvalidQuantity
	}
	var out Availability
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		p, err := repos.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}
		inBasket := 0
		b, err := repos.Baskets().GetByBuyer(ctx, buyerID)
		switch {
		case err == nil:
			inBasket = b.QuantityOf(productID)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		out = availability(p, inBasket, qty)
		return nil
	})
	return out, err
}

func availability(p *domain.Product, inBasket, qty int) Availability {
	remaining := p.Stock - inBasket
	if remaining < 0 {
		remaining = 0
	}
	return Availability{
		IsAvailable: qty <= remaining,
		ProductName: p.Name,
		BasketQty:   inBasket + qty,
		StockQty:    p.Stock,
		Remaining:   remaining,
	}
}

func (s *Service) getOrCreate(ctx context.Context, repos uow.Repositories, buyerID string) (*domain.Basket, error) {
	b, err := repos.Baskets().GetByBuyer(ctx, buyerID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	b, err = repos.Baskets().Create(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("create basket: %w", err)
	}
	s.logger.Info("basket created", zap.Int64("basket_id", b.ID), zap.String("buyer_id", buyerID))
	return b, nil
}
