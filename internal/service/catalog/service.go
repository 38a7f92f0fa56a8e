package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"perfumeshop/internal/cache"
	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/uow"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidProduct wraps field-level validation failures on admin writes.
var ErrInvalidProduct = errors.New("invalid product")

var ErrInvalidLookup = errors.New("invalid lookup")

const maxLookupName = 100

var maxPrice = decimal.NewFromInt(99999999)

// Service serves catalog reads through a cache and admin writes straight to
// the database, invalidating the cache afterwards.
type Service struct {
	uow     uow.UnitOfWork
	cache   cache.Cache
	logger  *zap.Logger
	perPage int
	sfg     singleflight.Group
}

func New(u uow.UnitOfWork, c cache.Cache, logger *zap.Logger, perPage int) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if perPage <= 0 {
		perPage = 12
	}
	return &Service{uow: u, cache: c, logger: logger.Named("catalog"), perPage: perPage}
}

// PerPage is the default page size.
func (s *Service) PerPage() int { return s.perPage }

// ListProducts returns one page of products matching the filter.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (*domain.ProductPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PerPage < 1 {
		page.PerPage = s.perPage
	}
	filter.Query = strings.TrimSpace(filter.Query)
	key := fmt.Sprintf("products:b%d:c%d:g%d:t%d:r%d:q%s:p%d:n%d",
		filter.BrandID, filter.CategoryID, filter.GenderID, filter.TypeID, filter.ReleaseFormID,
		strings.ToLower(filter.Query), page.Page, page.PerPage)

	var out domain.ProductPage
	err := s.readThrough(ctx, key, &out, func(ctx context.Context, repos uow.Repositories) (any, error) {
		items, total, err := repos.Products().List(ctx, filter, page)
		if err != nil {
			return nil, err
		}
		return domain.ProductPage{Products: items, Page: page.Page, PerPage: page.PerPage, Total: total}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &out, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var out domain.Product
	err := s.readThrough(ctx, fmt.Sprintf("product:%d", id), &out, func(ctx context.Context, repos uow.Repositories) (any, error) {
		p, err := repos.Products().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListLookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidLookup, kind)
	}
	var out []domain.Lookup
	err := s.readThrough(ctx, "lookups:"+string(kind), &out, func(ctx context.Context, repos uow.Repositories) (any, error) {
		return repos.Lookups().List(ctx, kind)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lookups returns every lookup list keyed by kind, for filters and forms.
func (s *Service) Lookups(ctx context.Context) (map[domain.LookupKind][]domain.Lookup, error) {
	out := make(map[domain.LookupKind][]domain.Lookup, len(domain.LookupKinds))
	for _, kind := range domain.LookupKinds {
		list, err := s.ListLookups(ctx, kind)
		if err != nil {
			return nil, err
		}
		out[kind] = list
	}
	return out, nil
}

func (s *Service) UpsertLookup(ctx context.Context, kind domain.LookupKind, name string) (*domain.Lookup, error) {
	name = strings.TrimSpace(name)
	switch {
	case !kind.IsValid():
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidLookup, kind)
	case name == "":
		return nil, fmt.Errorf("%w: name required", ErrInvalidLookup)
	case len(name) > maxLookupName:
		return nil, fmt.Errorf("%w: name longer than %d", ErrInvalidLookup, maxLookupName)
	}
	var out *domain.Lookup
	err := s.write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		out, err = repos.Lookups().Upsert(ctx, kind, name)
		return err
	})
	return out, err
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	var out *domain.Product
	err := s.write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		out, err = repos.Products().Create(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.Int64("product_id", out.ID), zap.String("name", out.Name))
	return out, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	var out *domain.Product
	err := s.write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		out, err = repos.Products().Update(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update product %d: %w", p.ID, err)
	}
	s.logger.Info("product updated", zap.Int64("product_id", out.ID))
	return out, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.write(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Products().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// InvalidateCache drops all cached catalog reads.
func (s *Service) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Error(err))
	}
}

// readThrough fills dst from the cache, or loads it once per key across
// concurrent callers and stores the result. Cache errors only degrade to a
// database read.
func (s *Service) readThrough(ctx context.Context, key string, dst any, load func(ctx context.Context, repos uow.Repositories) (any, error)) error {
	err := s.cache.Get(ctx, key, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := s.sfg.Do(key, func() (any, error) {
		var loaded any
		if err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
			var err error
			loaded, err = load(ctx, repos)
			return err
		}); err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, loaded); err != nil {
			s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return loaded, nil
	})
	if err != nil {
		return err
	}
	return assign(dst, v)
}

func (s *Service) write(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	if err := s.uow.Do(ctx, fn); err != nil {
		return err
	}
	s.InvalidateCache(ctx)
	return nil
}

func assign(dst, v any) error {
	switch d := dst.(type) {
	case *domain.ProductPage:
		*d = v.(domain.ProductPage)
	case *domain.Product:
		*d = v.(domain.Product)
	case *[]domain.Lookup:
		*d = v.([]domain.Lookup)
	default:
		return fmt.Errorf("catalog: unsupported cache target %T", dst)
	}
	return nil
}

func validateProduct(p domain.Product) error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name required")
	}
	if strings.TrimSpace(p.Description) == "" {
		problems = append(problems, "description required")
	}
	if p.Price.LessThan(decimal.NewFromInt(1)) || p.Price.GreaterThan(maxPrice) {
		problems = append(problems, "price must be between 1 and 99999999")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if p.Volume < 0 {
		problems = append(problems, "volume must not be negative")
	}
	if p.BrandID <= 0 {
		problems = append(problems, "brand required")
	}
	if p.CategoryID <= 0 {
		problems = append(problems, "category required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, ", "))
	}
	return nil
}
