package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk catalog layout. Omitted sections keep the
// built-in defaults.
type catalogFile struct {
	MaxPages     int                `json:"max_pages" yaml:"max_pages"`
	WebsiteTypes []WebsiteType      `json:"website_types" yaml:"website_types"`
	Discounts    []discountTierFile `json:"discounts" yaml:"discounts"`
	Delivery     []DeliveryTier     `json:"delivery" yaml:"delivery"`
}

type discountTierFile struct {
	MinPages   int         `json:"min_pages" yaml:"min_pages"`
	Multiplier json.Number `json:"multiplier" yaml:"multiplier"`
}

// LoadCatalogFile reads a YAML or JSON catalog. Files ending in .json are
// decoded as JSON, everything else as YAML.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read catalog: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return ParseCatalog(data, format)
}

// ParseCatalog decodes catalog data in the given format ("yaml" or "json").
func ParseCatalog(data []byte, format string) (*Catalog, error) {
	var file catalogFile
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("pricing: decode json catalog: %w", err)
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("pricing: decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("pricing: unsupported catalog format %q", format)
	}

	cfg := DefaultCatalogConfig()
	if file.MaxPages != 0 {
		cfg.MaxPages = file.MaxPages
	}
	if len(file.WebsiteTypes) > 0 {
		cfg.Types = file.WebsiteTypes
	}
	if file.Discounts != nil {
		cfg.Discounts = make([]DiscountTier, 0, len(file.Discounts))
		for _, d := range file.Discounts {
			m, err := decimal.NewFromString(strings.TrimSpace(d.Multiplier.String()))
			if err != nil {
				return nil, fmt.Errorf("pricing: discount multiplier %q: %w", d.Multiplier, err)
			}
			cfg.Discounts = append(cfg.Discounts, DiscountTier{MinPages: d.MinPages, Multiplier: m})
		}
	}
	if file.Delivery != nil {
		cfg.Delivery = file.Delivery
	}

	catalog, err := NewCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("pricing: invalid catalog: %w", err)
	}
	return catalog, nil
}
