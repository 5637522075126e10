package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type productFixture struct {
	db      *gorm.DB
	svc     *ProductService
	store   *storage.StubStorage
	vendor  *models.Vendor
	context context.Context
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	db := testutil.NewDB(t, testutil.CatalogModels()...)
	store := storage.NewStubStorage()
	vendor, _ := testutil.CreateVendor(t, db, "acme")
	return &productFixture{
		db:      db,
		svc:     NewProductService(db, NewCategoryService(db), store),
		store:   store,
		vendor:  vendor,
		context: context.Background(),
	}
}

func (f *productFixture) create(t *testing.T, req CreateProductRequest) *models.Product {
	t.Helper()
	p, err := f.svc.Create(f.context, f.vendor.ID, &req)
	require.NoError(t, err)
	return p
}

func TestProductCreate_DerivesUniqueSlug(t *testing.T) {
	f := newProductFixture(t)

	first := f.create(t, CreateProductRequest{Name: "Linen Shirt", Price: decimal.RequireFromString("39.90"), Stock: 3})
	second := f.create(t, CreateProductRequest{Name: "Linen shirt!", Price: decimal.RequireFromString("39.90")})
	third := f.create(t, CreateProductRequest{Name: "LINEN SHIRT", Price: decimal.RequireFromString("39.90")})

	assert.Equal(t, "linen-shirt", first.Slug)
	assert.Equal(t, "linen-shirt-2", second.Slug)
	assert.Equal(t, "linen-shirt-3", third.Slug)
	assert.Equal(t, models.ProductStatusDraft, first.Status)

	_, err := f.svc.Create(f.context, f.vendor.ID, &CreateProductRequest{Name: "Other", Slug: "linen-shirt"})
	assert.ErrorIs(t, err, ErrProductSlugTaken)
}

func TestProductCreate_SlugIsPerVendor(t *testing.T) {
	f := newProductFixture(t)
	other, _ := testutil.CreateVendor(t, f.db, "other")

	f.create(t, CreateProductRequest{Name: "Mug"})
	p, err := f.svc.Create(f.context, other.ID, &CreateProductRequest{Name: "Mug"})
	require.NoError(t, err)
	assert.Equal(t, "mug", p.Slug)
}

func TestProductCreate_Validation(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.svc.Create(f.context, f.vendor.ID, &CreateProductRequest{Name: "Bad", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrNegativePrice)

	_, err = f.svc.Create(f.context, f.vendor.ID, &CreateProductRequest{Name: "Bad", Stock: -2})
	assert.ErrorIs(t, err, ErrNegativeStock)

	_, err = f.svc.Create(f.context, f.vendor.ID, &CreateProductRequest{Name: "Bad", Status: "sold"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	other, _ := testutil.CreateVendor(t, f.db, "other")
	private, err := NewCategoryService(f.db).Create(f.context, &other.ID, &CategoryRequest{Name: "Private"})
	require.NoError(t, err)
	_, err = f.svc.Create(f.context, f.vendor.ID, &CreateProductRequest{Name: "Bad", CategoryID: &private.ID})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestProductUpdateAndDelete(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, CreateProductRequest{Name: "Tote", Price: decimal.RequireFromString("12.00")})

	name := "Canvas Tote"
	status := models.ProductStatusActive
	newPrice := decimal.RequireFromString("14.50")
	updated, err := f.svc.Update(f.context, f.vendor.ID, p.ID, &UpdateProductRequest{
		Name:   &name,
		Status: &status,
		Price:  &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, "Canvas Tote", updated.Name)
	assert.Equal(t, "tote", updated.Slug)
	assert.True(t, updated.IsActive())
	assert.Equal(t, "14.50", updated.Price.StringFixed(2))

	other, _ := testutil.CreateVendor(t, f.db, "other")
	_, err = f.svc.Update(f.context, other.ID, p.ID, &UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, f.svc.Delete(f.context, other.ID, p.ID), ErrProductNotFound)

	require.NoError(t, f.svc.Delete(f.context, f.vendor.ID, p.ID))
	_, err = f.svc.Get(f.context, f.vendor.ID, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// A soft-deleted product still holds its slug.
	again := f.create(t, CreateProductRequest{Name: "Tote"})
	assert.Equal(t, "tote-2", again.Slug)
}

func TestProductList_FiltersAndPaginates(t *testing.T) {
	f := newProductFixture(t)
	for _, name := range []string{"Red Mug", "Blue Mug", "Poster"} {
		f.create(t, CreateProductRequest{Name: name, Status: models.ProductStatusActive})
	}
	f.create(t, CreateProductRequest{Name: "Draft Mug"})

	products, total, err := f.svc.List(f.context, f.vendor.ID, ProductFilter{Query: "mug", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 3)

	products, total, err = f.svc.List(f.context, f.vendor.ID, ProductFilter{Status: models.ProductStatusActive, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 1)
}

func TestAddImage(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, CreateProductRequest{Name: "Lamp"})

	updated, err := f.svc.AddImage(f.context, f.vendor.ID, p.ID, "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)

	url := updated.Images[0]
	prefix := f.store.BaseURL + "/products/" + f.vendor.ID.String() + "/" + p.ID.String() + "/"
	assert.True(t, strings.HasPrefix(url, prefix), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	data, ok := f.store.Object(strings.TrimPrefix(url, f.store.BaseURL+"/"))
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))

	_, err = f.svc.AddImage(f.context, f.vendor.ID, p.ID, "application/pdf", strings.NewReader("%PDF"), 4)
	assert.ErrorIs(t, err, ErrInvalidImage)

	reloaded, err := f.svc.Get(f.context, f.vendor.ID, p.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Images, 1)
}

func TestApplyMatrix_PreviewDoesNotSave(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, CreateProductRequest{Name: "Tee"})

	specs, err := f.svc.ApplyMatrix(f.context, f.vendor.ID, p.ID, MatrixInput{
		Colors:       []string{"Black"},
		Sizes:        []string{"S", "M"},
		DefaultPrice: decimal.RequireFromString("20"),
		DefaultStock: 5,
	}, true)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, DefaultSKUPrefix(p.ID)+"-BLACK-S", specs[0].SKU)

	var count int64
	f.db.Model(&models.ProductVariant{}).Count(&count)
	assert.Zero(t, count)
}

func TestApplyMatrix_ReplacesVariants(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, CreateProductRequest{Name: "Tee"})
	testutil.CreateVariant(t, f.db, p.ID, "OLD-1", "Red", "L", "10", 1)

	_, err := f.svc.ApplyMatrix(f.context, f.vendor.ID, p.ID, MatrixInput{
		SKUPrefix:    "tee",
		Colors:       []string{"White", "Black"},
		Sizes:        []string{"M"},
		DefaultPrice: decimal.RequireFromString("25"),
		DefaultStock: 4,
	}, false)
	require.NoError(t, err)

	reloaded, err := f.svc.Get(f.context, f.vendor.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Variants, 2)
	assert.Equal(t, "TEE-BLACK-M", reloaded.Variants[0].SKU)
	assert.Equal(t, "TEE-WHITE-M", reloaded.Variants[1].SKU)
}

func TestApplyMatrix_SKUConflictRollsBack(t *testing.T) {
	f := newProductFixture(t)
	taken := f.create(t, CreateProductRequest{Name: "Existing"})
	testutil.CreateVariant(t, f.db, taken.ID, "TEE-RED-S", "Red", "S", "10", 1)

	p := f.create(t, CreateProductRequest{Name: "Tee"})
	testutil.CreateVariant(t, f.db, p.ID, "KEEP-ME", "Blue", "S", "10", 1)

	_, err := f.svc.ApplyMatrix(f.context, f.vendor.ID, p.ID, MatrixInput{
		SKUPrefix:    "tee",
		Colors:       []string{"Red"},
		Sizes:        []string{"S"},
		DefaultPrice: decimal.RequireFromString("10"),
	}, false)
	assert.ErrorIs(t, err, ErrSKUTaken)

	reloaded, err := f.svc.Get(f.context, f.vendor.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Variants, 1)
	assert.Equal(t, "KEEP-ME", reloaded.Variants[0].SKU)
}

func TestApplyMatrix_EquivalentSpellingsSaveOnce(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, CreateProductRequest{Name: "Tee"})

	specs, err := f.svc.ApplyMatrix(f.context, f.vendor.ID, p.ID, MatrixInput{
		SKUPrefix:    "tee",
		Colors:       []string{"Navy Blue", "navy-blue"},
		Sizes:        []string{"M"},
		DefaultPrice: decimal.RequireFromString("20"),
	}, false)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	reloaded, err := f.svc.Get(f.context, f.vendor.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Variants, 1)
	assert.Equal(t, "TEE-NAVY-BLUE-M", reloaded.Variants[0].SKU)

	_, err = f.svc.ApplyMatrix(f.context, f.vendor.ID, p.ID, MatrixInput{Colors: []string{"★"}}, true)
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestUniquenessChecksPropagateErrors(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, CreateProductRequest{Name: "Tee"})
	v := testutil.CreateVariant(t, f.db, p.ID, "TEE-RED-S", "Red", "S", "10", 1)

	boom := errors.New("connection reset")
	testutil.FailCounts(t, f.db, "product_variants", boom)
	sku := "tee-blue-s"
	_, err := f.svc.UpdateVariant(f.context, f.vendor.ID, p.ID, v.ID, &UpdateVariantRequest{SKU: &sku})
	assert.ErrorIs(t, err, boom)

	testutil.FailCounts(t, f.db, "products", boom)
	_, err = f.svc.Create(f.context, f.vendor.ID, &CreateProductRequest{Name: "Tee"})
	assert.ErrorIs(t, err, boom)

	var products []models.Product
	require.NoError(t, f.db.Find(&products).Error)
	assert.Len(t, products, 1)
}

func TestUpdateAndDeleteVariant(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, CreateProductRequest{Name: "Tee"})
	v := testutil.CreateVariant(t, f.db, p.ID, "TEE-RED-S", "Red", "S", "10", 1)
	testutil.CreateVariant(t, f.db, p.ID, "TEE-RED-M", "Red", "M", "10", 1)

	stock := 9
	sku := "tee-red-m"
	_, err := f.svc.UpdateVariant(f.context, f.vendor.ID, p.ID, v.ID, &UpdateVariantRequest{SKU: &sku})
	assert.ErrorIs(t, err, ErrSKUTaken)

	updated, err := f.svc.UpdateVariant(f.context, f.vendor.ID, p.ID, v.ID, &UpdateVariantRequest{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)

	other, _ := testutil.CreateVendor(t, f.db, "other")
	assert.ErrorIs(t, f.svc.DeleteVariant(f.context, other.ID, p.ID, v.ID), ErrVariantNotFound)
	assert.ErrorIs(t, f.svc.DeleteVariant(f.context, f.vendor.ID, uuid.New(), v.ID), ErrVariantNotFound)

	require.NoError(t, f.svc.DeleteVariant(f.context, f.vendor.ID, p.ID, v.ID))
	reloaded, err := f.svc.Get(f.context, f.vendor.ID, p.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Variants, 1)
}

func TestExport(t *testing.T) {
	f := newProductFixture(t)
	plain := f.create(t, CreateProductRequest{Name: "Poster", Price: decimal.RequireFromString("5"), Stock: 7})
	tee := f.create(t, CreateProductRequest{Name: "Tee"})
	testutil.CreateVariant(t, f.db, tee.ID, "TEE-RED-S", "Red", "S", "19.99", 2)
	testutil.CreateVariant(t, f.db, tee.ID, "TEE-RED-M", "Red", "M", "19.99", 3)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(f.context, f.vendor.ID, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	rows := file.Sheets[0].Rows
	require.Len(t, rows, 4)

	assert.Equal(t, "Product ID", rows[0].Cells[0].Value)
	assert.Equal(t, plain.ID.String(), rows[1].Cells[0].Value)
	assert.Equal(t, "5.00", rows[1].Cells[8].Value)

	skus := []string{rows[2].Cells[5].Value, rows[3].Cells[5].Value}
	assert.ElementsMatch(t, []string{"TEE-RED-S", "TEE-RED-M"}, skus)
}
