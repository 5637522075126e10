package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativePrice = errors.New("price must not be negative")
	ErrNegativeStock = errors.New("stock must not be negative")
	ErrInvalidOption = errors.New("colors and sizes need at least one letter or digit")
	ErrDuplicateSKU  = errors.New("variants would share a sku")
)

// MatrixInput describes the color × size grid of a product's variants.
type MatrixInput struct {
	SKUPrefix    string           `json:"sku_prefix"`
	Colors       []string         `json:"colors"`
	Sizes        []string         `json:"sizes"`
	DefaultPrice decimal.Decimal  `json:"default_price"`
	DefaultStock int              `json:"default_stock"`
	Overrides    []MatrixOverride `json:"overrides"`
}

// MatrixOverride sets price and/or stock for one color/size combination.
type MatrixOverride struct {
	Color string           `json:"color"`
	Size  string           `json:"size"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

type VariantSpec struct {
	SKU   string          `json:"sku"`
	Color string          `json:"color"`
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// GenerateVariantMatrix expands input into one variant per color/size pair, colors outermost.
// Values are trimmed and de-duplicated by their SKU segment, keeping the first spelling, so
// "Navy Blue" and "navy-blue" are one color. When only one dimension is given the other is
// left empty; with neither there are no variants.
func GenerateVariantMatrix(input MatrixInput) ([]VariantSpec, error) {
	if input.DefaultPrice.IsNegative() {
		return nil, ErrNegativePrice
	}
	if input.DefaultStock < 0 {
		return nil, ErrNegativeStock
	}

	colors, err := uniqueValues(input.Colors)
	if err != nil {
		return nil, err
	}
	sizes, err := uniqueValues(input.Sizes)
	if err != nil {
		return nil, err
	}
	if len(colors) == 0 && len(sizes) == 0 {
		return []VariantSpec{}, nil
	}
	if len(colors) == 0 {
		colors = []string{""}
	}
	if len(sizes) == 0 {
		sizes = []string{""}
	}

	overrides := make(map[string]MatrixOverride, len(input.Overrides))
	for _, o := range input.Overrides {
		if o.Price != nil && o.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		if o.Stock != nil && *o.Stock < 0 {
			return nil, ErrNegativeStock
		}
		overrides[comboKey(o.Color, o.Size)] = o
	}

	specs := make([]VariantSpec, 0, len(colors)*len(sizes))
	skus := make(map[string]bool, cap(specs))
	for _, color := range colors {
		for _, size := range sizes {
			sku := BuildSKU(input.SKUPrefix, color, size)
			// "Red Dark"/"XL" and "Red"/"Dark XL" both read RED-DARK-XL.
			if skus[sku] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
			}
			skus[sku] = true
			spec := VariantSpec{
				SKU:   sku,
				Color: color,
				Size:  size,
				Price: input.DefaultPrice,
				Stock: input.DefaultStock,
			}
			if o, ok := overrides[comboKey(color, size)]; ok {
				if o.Price != nil {
					spec.Price = *o.Price
				}
				if o.Stock != nil {
					spec.Stock = *o.Stock
				}
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// BuildSKU joins the non-empty parts with "-", uppercased, with runs of other characters collapsed to "-".
func BuildSKU(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := skuSegment(p); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return strings.Join(cleaned, "-")
}

func skuSegment(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func uniqueValues(values []string) ([]string, error) {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := skuSegment(v)
		if k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOption, v)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out, nil
}

func comboKey(color, size string) string {
	return skuSegment(color) + "\x00" + skuSegment(size)
}
