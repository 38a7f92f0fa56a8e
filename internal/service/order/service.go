package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/uow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrBuyerRequired = errors.New("buyer id required")

// CatalogCache is cleared after checkout changes product stock.
type CatalogCache interface {
	InvalidateCache(ctx context.Context)
}

// Service turns baskets into orders and tracks their payment state.
type Service struct {
	uow     uow.UnitOfWork
	catalog CatalogCache
	logger  *zap.Logger
	newID   func() string
}

type Option func(*Service)

// WithCatalogCache makes checkout drop cached catalog reads once stock has
// been reserved.
func WithCatalogCache(c CatalogCache) Option {
	return func(s *Service) { s.catalog = c }
}

func New(u uow.UnitOfWork, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{uow: u, logger: logger.Named("order"), newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout prices the buyer's basket at current catalog prices, reserves
// stock, records a pending order and empties the basket. Either all of it
// happens or none of it does.
func (s *Service) Checkout(ctx context.Context, buyerID string) (*domain.Order, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, ErrBuyerRequired
	}

	var out *domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		b, err := repos.Baskets().GetByBuyer(ctx, buyerID)
		if err != nil {
			return fmt.Errorf("load basket: %w", err)
		}
		if len(b.Items) == 0 {
			return domain.ErrEmptyBasket
		}

		o := domain.Order{BuyerID: buyerID, Items: make([]domain.OrderItem, 0, len(b.Items))}
		for _, it := range b.Items {
			p, err := repos.Products().GetByID(ctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("load product %d: %w", it.ProductID, err)
			}
			if err := repos.Products().DecrementStock(ctx, p.ID, it.Quantity); err != nil {
				return fmt.Errorf("reserve %q: %w", p.Name, err)
			}
			o.Items = append(o.Items, domain.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				UnitPrice:   p.Price,
				Quantity:    it.Quantity,
			})
		}
		o.Payment = domain.NewPaymentInfo(domain.PaymentPending, o.Total(), s.newID(), s.newID())

		out, err = repos.Orders().Create(ctx, o)
		if err != nil {
			return err
		}
		return repos.Baskets().Delete(ctx, b.ID)
	})
	if err != nil {
		s.logger.Warn("checkout failed", zap.String("buyer_id", buyerID), zap.Error(err))
		return nil, err
	}
	if s.catalog != nil {
		s.catalog.InvalidateCache(ctx)
	}
	s.logger.Info("order placed",
		zap.Int64("order_id", out.ID),
		zap.String("buyer_id", buyerID),
		zap.String("total", out.Payment.PayablePrice.StringFixed(2)))
	return out, nil
}

func (s *Service) ListOrders(ctx context.Context, buyerID string) ([]domain.Order, error) {
	var out []domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		out, err = repos.Orders().ListByBuyer(ctx, buyerID)
		return err
	})
	return out, err
}

// GetOrder returns the order only when it belongs to the buyer.
func (s *Service) GetOrder(ctx context.Context, buyerID string, id int64) (*domain.Order, error) {
	var out *domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		o, err := repos.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.BuyerID != buyerID {
			return domain.ErrNotFound
		}
		out = o
		return nil
	})
	return out, err
}

// ConfirmPayment marks the order paid at the given time.
func (s *Service) ConfirmPayment(ctx context.Context, id int64, at time.Time) (*domain.Order, error) {
	return s.transition(ctx, id, "paid", func(p *domain.PaymentInfo) error { return p.MarkPaid(at) })
}

func (s *Service) FailPayment(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, "failed", func(p *domain.PaymentInfo) error { return p.MarkFailed() })
}

func (s *Service) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.transition(ctx, id, "cancelled", func(p *domain.PaymentInfo) error { return p.Cancel() })
}

func (s *Service) transition(ctx context.Context, id int64, name string, apply func(p *domain.PaymentInfo) error) (*domain.Order, error) {
	var out *domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		o, err := repos.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(&o.Payment); err != nil {
			return fmt.Errorf("order %d %s -> %s: %w", id, o.Payment.Status, name, err)
		}
		if err := repos.Orders().UpdatePayment(ctx, id, o.Payment); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order payment updated", zap.Int64("order_id", id), zap.Stringer("status", out.Payment.Status))
	return out, nil
}
