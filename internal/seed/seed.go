package seed

import (
	"context"
	"fmt"
	"time"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/uow"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productSeed struct {
	Name        string
	Description string
	Brand       string
	Category    string
	Gender      string
	Type        string
	ReleaseForm string
	Price       string
	Stock       int
	Volume      int
}

var products = []productSeed{
	{
		Name:        "Sauvage",
		Description: "Fresh and spicy with bergamot and ambroxan",
		Brand:       "Dior",
		Category:    "Eau de Toilette",
		Gender:      "Men",
		Type:        "Aromatic Fougere",
		ReleaseForm: "Spray",
		Price:       "89.90",
		Stock:       25,
		Volume:      100,
	},
	{
		Name:        "J'adore",
		Description: "Floral bouquet of ylang-ylang, rose and jasmine",
		Brand:       "Dior",
		Category:    "Eau de Parfum",
		Gender:      "Women",
		Type:        "Floral",
		ReleaseForm: "Spray",
		Price:       "120.00",
		Stock:       12,
		Volume:      50,
	},
	{
		Name:        "Bleu de Chanel",
		Description: "Woody aromatic with citrus and incense",
		Brand:       "Chanel",
		Category:    "Eau de Parfum",
		Gender:      "Men",
		Type:        "Woody Aromatic",
		ReleaseForm: "Spray",
		Price:       "135.50",
		Stock:       8,
		Volume:      100,
	},
	{
		Name:        "Wood Sage & Sea Salt",
		Description: "Mineral sea salt with earthy sage",
		Brand:       "Jo Malone",
		Category:    "Cologne",
		Gender:      "Unisex",
		Type:        "Woody",
		ReleaseForm: "Spray",
		Price:       "72.00",
		Stock:       0,
		Volume:      30,
	},
}

// Apply inserts demo catalog data. It is idempotent: lookups and products
// are upserted by name.
func Apply(ctx context.Context, u uow.UnitOfWork, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return u.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		ids := make(map[domain.LookupKind]map[string]int64, len(domain.LookupKinds))
		lookupID := func(kind domain.LookupKind, name string) (int64, error) {
			if name == "" {
				return 0, nil
			}
			if id, ok := ids[kind][name]; ok {
				return id, nil
			}
			l, err := repos.Lookups().Upsert(ctx, kind, name)
			if err != nil {
				return 0, fmt.Errorf("upsert %s %q: %w", kind, name, err)
			}
			if ids[kind] == nil {
				ids[kind] = make(map[string]int64)
			}
			ids[kind][name] = l.ID
			return l.ID, nil
		}

		for _, s := range products {
			p := domain.Product{
				Name:         s.Name,
				Description:  s.Description,
				Price:        decimal.RequireFromString(s.Price),
				Stock:        s.Stock,
				Volume:       s.Volume,
				DateDelivery: time.Now().UTC().Truncate(24 * time.Hour),
			}
			var err error
			for _, ref := range []struct {
				kind domain.LookupKind
				name string
				dst  *int64
			}{
				{domain.LookupBrand, s.Brand, &p.BrandID},
				{domain.LookupCategory, s.Category, &p.CategoryID},
				{domain.LookupGender, s.Gender, &p.GenderID},
				{domain.LookupType, s.Type, &p.TypeID},
				{domain.LookupReleaseForm, s.ReleaseForm, &p.ReleaseFormID},
			} {
				if *ref.dst, err = lookupID(ref.kind, ref.name); err != nil {
					return err
				}
			}
			if _, err := repos.Products().Upsert(ctx, p); err != nil {
				return fmt.Errorf("upsert product %q: %w", s.Name, err)
			}
			logger.Debug("seeded product", zap.String("name", s.Name), zap.String("brand", s.Brand))
		}
		logger.Info("seed applied", zap.Int("products", len(products)))
		return nil
	})
}
