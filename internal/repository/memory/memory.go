// Package memory is an in-process implementation of the repositories and
// unit of work. Service tests use it in place of PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/basket"
	"perfumeshop/internal/repository/lookup"
	"perfumeshop/internal/repository/order"
	"perfumeshop/internal/repository/product"
	"perfumeshop/internal/repository/token"
	"perfumeshop/internal/repository/uow"
	"perfumeshop/internal/repository/user"
)

type state struct {
	seq      int64
	baskets  map[int64]domain.Basket
	items    map[int64]domain.BasketItem
	products map[int64]domain.Product
	lookups  map[domain.LookupKind]map[string]domain.Lookup
	orders   map[int64]domain.Order
	users    map[string]domain.User
	tokens   map[string]token.Token
}

func newState() state {
	return state{
		baskets:  make(map[int64]domain.Basket),
		items:    make(map[int64]domain.BasketItem),
		products: make(map[int64]domain.Product),
		lookups:  make(map[domain.LookupKind]map[string]domain.Lookup),
		orders:   make(map[int64]domain.Order),
		users:    make(map[string]domain.User),
		tokens:   make(map[string]token.Token),
	}
}

func (s state) clone() state {
	out := newState()
	out.seq = s.seq
	for k, v := range s.baskets {
		out.baskets[k] = v
	}
	for k, v := range s.items {
		out.items[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for kind, m := range s.lookups {
		cp := make(map[string]domain.Lookup, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out.lookups[kind] = cp
	}
	for k, v := range s.orders {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		out.orders[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.tokens {
		out.tokens[k] = v
	}
	return out
}

// Store holds all data. Do serialises units of work and restores the
// previous state when fn fails.
type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

var _ uow.UnitOfWork = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(ctx, repoSet{s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Seed runs fn outside of any caller transaction, for test setup.
func (s *Store) Seed(fn func(repos uow.Repositories)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(repoSet{s})
}

// BasketCount returns the number of stored baskets.
func (s *Store) BasketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.baskets)
}

// ItemCount returns the number of stored basket lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.items)
}

func (s *Store) next() int64 {
	s.st.seq++
	return s.st.seq
}

type repoSet struct{ s *Store }

func (r repoSet) Baskets() basket.Repository { return basketRepo{r.s} }
func (r repoSet) Products() product.Repository { return productRepo{r.s} }
func (r repoSet) Lookups() lookup.Repository { return lookupRepo{r.s} }
func (r repoSet) Orders() order.Repository { return orderRepo{r.s} }
func (r repoSet) Users() user.Repository { return userRepo{r.s} }
func (r repoSet) Tokens() token.Repository { return tokenRepo{r.s} }

type basketRepo struct{ s *Store }

func (r basketRepo) withItems(b domain.Basket) *domain.Basket {
	b.Items = nil
	for _, it := range r.s.st.items {
		if it.BasketID == b.ID {
			b.Items = append(b.Items, it)
		}
	}
	sort.Slice(b.Items, func(i, j int) bool { return b.Items[i].ID < b.Items[j].ID })
	return &b
}

func (r basketRepo) GetByBuyer(_ context.Context, buyerID string) (*domain.Basket, error) {
	for _, b := range r.s.st.baskets {
		if b.BuyerID == buyerID {
			return r.withItems(b), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r basketRepo) GetByID(_ context.Context, id int64) (*domain.Basket, error) {
	b, ok := r.s.st.baskets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.withItems(b), nil
}

func (r basketRepo) Create(ctx context.Context, buyerID string) (*domain.Basket, error) {
	if _, err := r.GetByBuyer(ctx, buyerID); err == nil {
		return nil, domain.ErrAlreadyExists
	}
	b := domain.Basket{ID: r.s.next(), BuyerID: buyerID, CreatedAt: r.s.now()}
	r.s.st.baskets[b.ID] = b
	return &b, nil
}

func (r basketRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.st.baskets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.baskets, id)
	for itemID, it := range r.s.st.items {
		if it.BasketID == id {
			delete(r.s.st.items, itemID)
		}
	}
	return nil
}

func (r basketRepo) ReassignBuyer(ctx context.Context, id int64, buyerID string) error {
	b, ok := r.s.st.baskets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if other, err := r.GetByBuyer(ctx, buyerID); err == nil && other.ID != id {
		return domain.ErrAlreadyExists
	}
	b.BuyerID = buyerID
	r.s.st.baskets[id] = b
	return nil
}

func (r basketRepo) AddItem(_ context.Context, basketID, productID int64, qty int) (*domain.BasketItem, error) {
	stored, ok := r.s.st.baskets[basketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it, err := r.withItems(stored).AddItem(productID, qty)
	if err != nil {
		return nil, err
	}
	if it.ID == 0 {
		it.ID = r.s.next()
		it.CreatedAt = r.s.now()
	}
	r.s.st.items[it.ID] = it
	return &it, nil
}

func (r basketRepo) GetItem(_ context.Context, itemID int64) (*domain.BasketItem, error) {
	it, ok := r.s.st.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (r basketRepo) SetItemQuantity(_ context.Context, itemID int64, qty int) (*domain.BasketItem, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	it, ok := r.s.st.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it.Quantity = qty
	r.s.st.items[itemID] = it
	return &it, nil
}

func (r basketRepo) DeleteItem(_ context.Context, itemID int64) (*domain.BasketItem, error) {
	it, ok := r.s.st.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.s.st.items, itemID)
	return &it, nil
}

type productRepo struct{ s *Store }

func (r productRepo) List(_ context.Context, f domain.ProductFilter, page domain.PageRequest) ([]domain.Product, int, error) {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	var matched []domain.Product
	for _, p := range r.s.st.products {
		switch {
		case f.BrandID > 0 && p.BrandID != f.BrandID,
			f.CategoryID > 0 && p.CategoryID != f.CategoryID,
			f.GenderID > 0 && p.GenderID != f.GenderID,
			f.TypeID > 0 && p.TypeID != f.TypeID,
			f.ReleaseFormID > 0 && p.ReleaseFormID != f.ReleaseFormID,
			q != "" && !strings.Contains(strings.ToLower(p.Name), q):
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	if page.PerPage > 0 {
		start := page.Offset()
		if start > total {
			start = total
		}
		end := start + page.PerPage
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r productRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r productRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	for _, existing := range r.s.st.products {
		if existing.BrandID == p.BrandID && existing.Name == p.Name {
			return nil, domain.ErrAlreadyExists
		}
	}
	p.ID = r.s.next()
	p.CreatedAt = r.s.now()
	r.s.st.products[p.ID] = p
	return &p, nil
}

func (r productRepo) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	old, ok := r.s.st.products[p.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	r.s.st.products[p.ID] = p
	return &p, nil
}

func (r productRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.st.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.products, id)
	return nil
}

func (r productRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	for id, existing := range r.s.st.products {
		if existing.BrandID == p.BrandID && existing.Name == p.Name {
			p.ID = id
			return r.Update(ctx, p)
		}
	}
	return r.Create(ctx, p)
}

func (r productRepo) DecrementStock(_ context.Context, id int64, qty int) error {
	p, ok := r.s.st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Stock < qty {
		return domain.ErrInsufficientStock
	}
	p.Stock -= qty
	r.s.st.products[id] = p
	return nil
}

type lookupRepo struct{ s *Store }

func (r lookupRepo) List(_ context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	var out []domain.Lookup
	for _, l := range r.s.st.lookups[kind] {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r lookupRepo) Upsert(_ context.Context, kind domain.LookupKind, name string) (*domain.Lookup, error) {
	m := r.s.st.lookups[kind]
	if m == nil {
		m = make(map[string]domain.Lookup)
		r.s.st.lookups[kind] = m
	}
	if l, ok := m[name]; ok {
		return &l, nil
	}
	l := domain.Lookup{ID: r.s.next(), Kind: kind, Name: name}
	m[name] = l
	return &l, nil
}

type orderRepo struct{ s *Store }

func (r orderRepo) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	o.ID = r.s.next()
	o.CreatedAt = r.s.now()
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	r.s.st.orders[o.ID] = o
	return &o, nil
}

func (r orderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r orderRepo) ListByBuyer(_ context.Context, buyerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.s.st.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r orderRepo) UpdatePayment(_ context.Context, id int64, p domain.PaymentInfo) error {
	o, ok := r.s.st.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Payment = p
	r.s.st.orders[id] = o
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	u.Email = strings.ToLower(u.Email)
	if _, err := r.GetByEmail(ctx, u.Email); err == nil {
		return nil, domain.ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = "user-" + u.Email
	}
	u.CreatedAt = r.s.now()
	r.s.st.users[u.ID] = u
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) RecordFailure(_ context.Context, id string, lockoutEnd *time.Time) (*domain.User, error) {
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if lockoutEnd != nil {
		u.FailedAttempts = 0
		u.LockoutEnd = lockoutEnd
	} else {
		u.FailedAttempts++
	}
	r.s.st.users[id] = u
	return &u, nil
}

func (r userRepo) ResetFailures(_ context.Context, id string) error {
	u, ok := r.s.st.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.FailedAttempts = 0
	u.LockoutEnd = nil
	r.s.st.users[id] = u
	return nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Create(_ context.Context, t token.Token) error {
	if _, ok := r.s.st.tokens[t.Token]; ok {
		return domain.ErrAlreadyExists
	}
	t.CreatedAt = r.s.now()
	r.s.st.tokens[t.Token] = t
	return nil
}

func (r tokenRepo) Get(_ context.Context, t string) (*token.Token, error) {
	out, ok := r.s.st.tokens[t]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &out, nil
}

func (r tokenRepo) Delete(_ context.Context, t string) error {
	if _, ok := r.s.st.tokens[t]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.tokens, t)
	return nil
}

func (r tokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for k, t := range r.s.st.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.s.st.tokens, k)
			n++
		}
	}
	return n, nil
}
