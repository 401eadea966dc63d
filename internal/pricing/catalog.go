// Package pricing computes price and delivery estimates for website builds
// from a static, data-driven catalog.
package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CustomTypeID is the catalog id that requires a free-text description.
	CustomTypeID = "custom"
	// MinCustomDescriptionLen is the minimum trimmed rune count for custom requests.
	MinCustomDescriptionLen = 10
	// DefaultMaxPages bounds the page counter.
	DefaultMaxPages = 10
	// UnknownLabel is returned for ids missing from the catalog.
	UnknownLabel = "Unknown"
	// UnknownTypeKey replaces ids missing from the catalog wherever the id
	// becomes a metric label or log key.
	UnknownTypeKey = "unknown"
	// MaxCustomDescriptionLen caps the stored custom description, in runes.
	MaxCustomDescriptionLen = 2000
)

// WebsiteType is one immutable catalog entry.
type WebsiteType struct {
	ID                string `json:"id" yaml:"id"`
	Label             string `json:"label" yaml:"label"`
	Icon              string `json:"icon,omitempty" yaml:"icon,omitempty"`
	BasePrice         int64  `json:"base_price" yaml:"base_price"`
	PricePerExtraPage int64  `json:"price_per_extra_page" yaml:"price_per_extra_page"`
	DeliveryDaysBase  int    `json:"delivery_days_base" yaml:"delivery_days_base"`
}

// DiscountTier applies Multiplier to the raw price once the page count
// reaches MinPages.
type DiscountTier struct {
	MinPages   int             `json:"min_pages"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// DeliveryTier adds ceil(pages/Divisor) days once the page count exceeds
// AbovePages.
type DeliveryTier struct {
	AbovePages int `json:"above_pages" yaml:"above_pages"`
	Divisor    int `json:"divisor" yaml:"divisor"`
}

// CatalogConfig is the raw data a Catalog is built from.
type CatalogConfig struct {
	Types     []WebsiteType
	MaxPages  int
	Discounts []DiscountTier
	Delivery  []DeliveryTier
}

// Catalog is the validated, read-only pricing table. Safe for concurrent use.
type Catalog struct {
	types     []WebsiteType
	index     map[string]int
	maxPages  int
	discounts []DiscountTier
	delivery  []DeliveryTier
}

// DefaultDiscountTiers returns the stock volume discounts: 15% off from five
// pages, 10% off from three.
func DefaultDiscountTiers() []DiscountTier {
	return []DiscountTier{
		{MinPages: 5, Multiplier: decimal.RequireFromString("0.85")},
		{MinPages: 3, Multiplier: decimal.RequireFromString("0.90")},
	}
}

// DefaultDeliveryTiers returns the stock schedule padding.
func DefaultDeliveryTiers() []DeliveryTier {
	return []DeliveryTier{
		{AbovePages: 5, Divisor: 2},
		{AbovePages: 3, Divisor: 3},
	}
}

// DefaultWebsiteTypes returns the five stock website types.
func DefaultWebsiteTypes() []WebsiteType {
	return []WebsiteType{
		{ID: "landing", Label: "Landing Page", Icon: "🚀", BasePrice: 50, PricePerExtraPage: 50, DeliveryDaysBase: 5},
		{ID: "portfolio", Label: "Portfolio", Icon: "🎨", BasePrice: 70, PricePerExtraPage: 60, DeliveryDaysBase: 7},
		{ID: "blog", Label: "Blog", Icon: "📝", BasePrice: 60, PricePerExtraPage: 55, DeliveryDaysBase: 10},
		{ID: "ecommerce", Label: "E-commerce", Icon: "🛒", BasePrice: 100, PricePerExtraPage: 125, DeliveryDaysBase: 14},
		{ID: CustomTypeID, Label: "Custom", Icon: "✨", BasePrice: 150, PricePerExtraPage: 150, DeliveryDaysBase: 21},
	}
}

// DefaultCatalogConfig returns the stock configuration.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Types:     DefaultWebsiteTypes(),
		MaxPages:  DefaultMaxPages,
		Discounts: DefaultDiscountTiers(),
		Delivery:  DefaultDeliveryTiers(),
	}
}

// DefaultCatalog builds the stock catalog. It panics only if the built-in
// table is broken.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultCatalogConfig())
	if err != nil {
		panic(fmt.Sprintf("pricing: default catalog invalid: %v", err))
	}
	return c
}

// NewCatalog validates cfg and freezes it into a Catalog.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if len(cfg.Types) == 0 {
		return nil, ErrNoWebsiteTypes
	}
	if cfg.MaxPages < 1 {
		return nil, ErrInvalidMaxPages
	}

	c := &Catalog{
		types:    make([]WebsiteType, 0, len(cfg.Types)),
		index:    make(map[string]int, len(cfg.Types)),
		maxPages: cfg.MaxPages,
	}
	for _, t := range cfg.Types {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, ErrEmptyTypeID
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTypeID, t.ID)
		}
		if t.BasePrice < 0 || t.PricePerExtraPage < 0 || t.DeliveryDaysBase < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNegativePrice, t.ID)
		}
		c.index[t.ID] = len(c.types)
		c.types = append(c.types, t)
	}

	one := decimal.NewFromInt(1)
	for _, d := range cfg.Discounts {
		if !d.Multiplier.IsPositive() || d.Multiplier.GreaterThan(one) {
			return nil, fmt.Errorf("%w: min_pages=%d", ErrInvalidMultiplier, d.MinPages)
		}
		c.discounts = append(c.discounts, d)
	}
	sort.SliceStable(c.discounts, func(i, j int) bool {
		return c.discounts[i].MinPages > c.discounts[j].MinPages
	})

	for _, d := range cfg.Delivery {
		if d.Divisor <= 0 {
			return nil, fmt.Errorf("%w: above_pages=%d", ErrInvalidDivisor, d.AbovePages)
		}
		c.delivery = append(c.delivery, d)
	}
	sort.SliceStable(c.delivery, func(i, j int) bool {
		return c.delivery[i].AbovePages > c.delivery[j].AbovePages
	})

	return c, nil
}

// Lookup returns the website type with the given id.
func (c *Catalog) Lookup(id string) (WebsiteType, bool) {
	i, ok := c.index[id]
	if !ok {
		return WebsiteType{}, false
	}
	return c.types[i], true
}

// Types returns the catalog entries in declaration order.
func (c *Catalog) Types() []WebsiteType {
	out := make([]WebsiteType, len(c.types))
	copy(out, c.types)
	return out
}

// MaxPages is the inclusive upper bound for a selection's page count.
func (c *Catalog) MaxPages() int {
	return c.maxPages
}

// Discounts returns the discount tiers, highest threshold first.
func (c *Catalog) Discounts() []DiscountTier {
	out := make([]DiscountTier, len(c.discounts))
	copy(out, c.discounts)
	return out
}

// Delivery returns the delivery tiers, highest threshold first.
func (c *Catalog) Delivery() []DeliveryTier {
	out := make([]DeliveryTier, len(c.delivery))
	copy(out, c.delivery)
	return out
}

// ClampPages forces n into [1, maxPages].
func ClampPages(n, maxPages int) int {
	if maxPages < 1 {
		maxPages = 1
	}
	if n < 1 {
		return 1
	}
	if n > maxPages {
		return maxPages
	}
	return n
}
