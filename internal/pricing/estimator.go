package pricing

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Selection is the visitor's estimator input.
type Selection struct {
	WebsiteTypeID     string `json:"website_type"`
	CustomDescription string `json:"custom_description"`
	NumPages          int    `json:"num_pages"`
}

// Estimate is a price and delivery time derived from a Selection.
type Estimate struct {
	Price        int64 `json:"price"`
	DeliveryDays int   `json:"delivery_days"`
}

// Estimator evaluates selections against a catalog. Every method is a pure
// function of its input and the catalog.
type Estimator struct {
	catalog *Catalog
}

// NewEstimator creates an estimator; a nil catalog uses DefaultCatalog.
func NewEstimator(catalog *Catalog) *Estimator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Estimator{catalog: catalog}
}

// Catalog exposes the underlying catalog.
func (e *Estimator) Catalog() *Catalog {
	return e.catalog
}

// MaxPages is the catalog page limit.
func (e *Estimator) MaxPages() int {
	return e.catalog.MaxPages()
}

// IsValid reports whether sel can be submitted.
func (e *Estimator) IsValid(sel Selection) bool {
	if _, ok := e.catalog.Lookup(sel.WebsiteTypeID); !ok {
		return false
	}
	if sel.NumPages < 1 || sel.NumPages > e.catalog.MaxPages() {
		return false
	}
	if sel.WebsiteTypeID == CustomTypeID {
		return utf8.RuneCountInString(strings.TrimSpace(sel.CustomDescription)) >= MinCustomDescriptionLen
	}
	return true
}

// CalculatePrice returns the discounted price rounded to a whole currency
// unit, or 0 when the website type is empty or unknown.
func (e *Estimator) CalculatePrice(sel Selection) int64 {
	t, ok := e.catalog.Lookup(sel.WebsiteTypeID)
	if !ok {
		return 0
	}
	pages := ClampPages(sel.NumPages, e.catalog.MaxPages())

	raw := decimal.NewFromInt(t.BasePrice + int64(pages-1)*t.PricePerExtraPage)
	for _, tier := range e.catalog.discounts {
		if pages >= tier.MinPages {
			raw = raw.Mul(tier.Multiplier)
			break
		}
	}
	return raw.Round(0).IntPart()
}

// CalculateDeliveryDays returns the delivery time in days, or 0 when the
// website type is unknown.
func (e *Estimator) CalculateDeliveryDays(sel Selection) int {
	t, ok := e.catalog.Lookup(sel.WebsiteTypeID)
	if !ok {
		return 0
	}
	pages := ClampPages(sel.NumPages, e.catalog.MaxPages())

	days := t.DeliveryDaysBase
	for _, tier := range e.catalog.delivery {
		if pages > tier.AbovePages {
			days += (pages + tier.Divisor - 1) / tier.Divisor
			break
		}
	}
	return days
}

// Estimate computes price and delivery together.
func (e *Estimator) Estimate(sel Selection) Estimate {
	return Estimate{
		Price:        e.CalculatePrice(sel),
		DeliveryDays: e.CalculateDeliveryDays(sel),
	}
}

// TypeKey returns id when the catalog knows it and UnknownTypeKey otherwise,
// bounding the set of values visitor input can produce.
func (e *Estimator) TypeKey(id string) string {
	if _, ok := e.catalog.Lookup(id); ok {
		return id
	}
	return UnknownTypeKey
}

// Label returns the display label for id, or UnknownLabel.
func (e *Estimator) Label(id string) string {
	if t, ok := e.catalog.Lookup(id); ok {
		return t.Label
	}
	return UnknownLabel
}
