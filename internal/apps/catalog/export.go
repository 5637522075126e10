package catalog

import (
	"context"
	"io"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{
	"Product ID", "Name", "Slug", "Status", "Category",
	"SKU", "Color", "Size", "Price", "Stock", "Created At",
}

// Export writes the vendor's catalog as an xlsx workbook, one row per variant
// and one row for each product without variants.
func (s *ProductService) Export(ctx context.Context, vendorID uuid.UUID, w io.Writer) error {
	var products []models.Product
	if err := s.db.WithContext(ctx).Scopes(tenant.ForVendor(vendorID)).
		Preload("Category").
		Preload("Variants").
		Order("name").Find(&products).Error; err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		if len(p.Variants) == 0 {
			addExportRow(sheet, &p, category, "", "", "", p.Price.StringFixed(2), p.Stock)
			continue
		}
		for _, v := range p.Variants {
			addExportRow(sheet, &p, category, v.SKU, v.Color, v.Size, v.Price.StringFixed(2), v.Stock)
		}
	}

	return file.Write(w)
}

func addExportRow(sheet *xlsx.Sheet, p *models.Product, category, sku, color, size, price string, stock int) {
	row := sheet.AddRow()
	row.AddCell().SetString(p.ID.String())
	row.AddCell().SetString(p.Name)
	row.AddCell().SetString(p.Slug)
	row.AddCell().SetString(p.Status)
	row.AddCell().SetString(category)
	row.AddCell().SetString(sku)
	row.AddCell().SetString(color)
	row.AddCell().SetString(size)
	row.AddCell().SetString(price)
	row.AddCell().SetInt(stock)
	row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04:05"))
}
