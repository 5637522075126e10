// Package pricing computes checkout totals: subtotal, tax, shipping and the per-vendor split.
package pricing

import (
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Rules struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		TaxRate:               cfg.TaxRate,
		ShippingFee:           cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
}

type Line struct {
	VendorID  uuid.UUID
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Summary struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

// Calculate prices a single order. Shipping is waived once the subtotal reaches the
// free-shipping threshold and is never charged on an empty order.
func Calculate(lines []Line, rules Rules) Summary {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
		count += l.Quantity
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(rules.TaxRate).Round(2)

	shipping := rules.ShippingFee
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(rules.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Summary{
		ItemCount: count,
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping),
	}
}

// VendorGroup is the slice of a cart that becomes one vendor's order.
// Indexes point back into the lines passed to SplitByVendor.
type VendorGroup struct {
	VendorID uuid.UUID
	Indexes  []int
	Summary  Summary
}

// SplitByVendor groups lines by vendor, keeping vendors in first-seen order, and prices
// each group on its own.
func SplitByVendor(lines []Line, rules Rules) []VendorGroup {
	var groups []VendorGroup
	pos := make(map[uuid.UUID]int)
	for i, l := range lines {
		g, ok := pos[l.VendorID]
		if !ok {
			g = len(groups)
			pos[l.VendorID] = g
			groups = append(groups, VendorGroup{VendorID: l.VendorID})
		}
		groups[g].Indexes = append(groups[g].Indexes, i)
	}

	for gi := range groups {
		groupLines := make([]Line, len(groups[gi].Indexes))
		for j, idx := range groups[gi].Indexes {
			groupLines[j] = lines[idx]
		}
		groups[gi].Summary = Calculate(groupLines, rules)
	}
	return groups
}

// Combine adds up per-vendor summaries into the figure shown for the whole cart.
func Combine(groups []VendorGroup) Summary {
	total := Summary{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
		Total:    decimal.Zero,
	}
	for _, g := range groups {
		total.ItemCount += g.Summary.ItemCount
		total.Subtotal = total.Subtotal.Add(g.Summary.Subtotal)
		total.Tax = total.Tax.Add(g.Summary.Tax)
		total.Shipping = total.Shipping.Add(g.Summary.Shipping)
		total.Total = total.Total.Add(g.Summary.Total)
	}
	return total
}
