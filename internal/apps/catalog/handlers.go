package catalog

import (
	"bytes"
	"errors"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxImageSize = 5 << 20

type Handler struct {
	categories *CategoryService
	products   *ProductService
}

func NewHandler(categories *CategoryService, products *ProductService) *Handler {
	return &Handler{categories: categories, products: products}
}

func catalogError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrVariantNotFound):
		return handlers.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrCategorySlugTaken),
		errors.Is(err, ErrProductSlugTaken),
		errors.Is(err, ErrSKUTaken),
		errors.Is(err, ErrCategoryHasChildren):
		return handlers.Fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrCategoryDepth),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrNegativePrice),
		errors.Is(err, ErrNegativeStock),
		errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrDuplicateSKU),
		errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrTooManyImages):
		return handlers.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error(fallback, "error", err)
	return handlers.Fail(c, fiber.StatusInternalServerError, fallback)
}

// --- categories ---

func (h *Handler) vendorScope(c *fiber.Ctx) *uuid.UUID {
	id := tenant.GetVendorID(c)
	return &id
}

func (h *Handler) ListCategories(c *fiber.Ctx) error {
	tree, err := h.categories.Tree(c.UserContext(), h.vendorScope(c))
	if err != nil {
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to fetch categories")
	}
	return c.JSON(fiber.Map{"categories": tree})
}

func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	return h.createCategory(c, h.vendorScope(c))
}

func (h *Handler) UpdateCategory(c *fiber.Ctx) error {
	return h.updateCategory(c, h.vendorScope(c))
}

func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	return h.deleteCategory(c, h.vendorScope(c))
}

func (h *Handler) ListGlobalCategories(c *fiber.Ctx) error {
	tree, err := h.categories.Tree(c.UserContext(), nil)
	if err != nil {
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to fetch categories")
	}
	return c.JSON(fiber.Map{"categories": tree})
}

func (h *Handler) CreateGlobalCategory(c *fiber.Ctx) error {
	return h.createCategory(c, nil)
}

func (h *Handler) UpdateGlobalCategory(c *fiber.Ctx) error {
	return h.updateCategory(c, nil)
}

func (h *Handler) DeleteGlobalCategory(c *fiber.Ctx) error {
	return h.deleteCategory(c, nil)
}

func (h *Handler) createCategory(c *fiber.Ctx, scope *uuid.UUID) error {
	var req CategoryRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}
	cat, err := h.categories.Create(c.UserContext(), scope, &req)
	if err != nil {
		return catalogError(c, err, "Failed to create category")
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *Handler) updateCategory(c *fiber.Ctx, scope *uuid.UUID) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}
	var req CategoryRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}
	cat, err := h.categories.Update(c.UserContext(), scope, id, &req)
	if err != nil {
		return catalogError(c, err, "Failed to update category")
	}
	return c.JSON(cat)
}

func (h *Handler) deleteCategory(c *fiber.Ctx, scope *uuid.UUID) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}
	if err := h.categories.Delete(c.UserContext(), scope, id); err != nil {
		return catalogError(c, err, "Failed to delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- products ---

func (h *Handler) ListProducts(c *fiber.Ctx) error {
	page, limit := handlers.Page(c)
	products, total, err := h.products.List(c.UserContext(), tenant.GetVendorID(c), ProductFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to fetch products")
	}
	return c.JSON(fiber.Map{
		"products":   products,
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *Handler) GetProduct(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	product, err := h.products.Get(c.UserContext(), tenant.GetVendorID(c), id)
	if err != nil {
		return catalogError(c, err, "Failed to fetch product")
	}
	return c.JSON(product)
}

func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}
	product, err := h.products.Create(c.UserContext(), tenant.GetVendorID(c), &req)
	if err != nil {
		return catalogError(c, err, "Failed to create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *Handler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	var req UpdateProductRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}
	product, err := h.products.Update(c.UserContext(), tenant.GetVendorID(c), id, &req)
	if err != nil {
		return catalogError(c, err, "Failed to update product")
	}
	return c.JSON(product)
}

func (h *Handler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	if err := h.products.Delete(c.UserContext(), tenant.GetVendorID(c), id); err != nil {
		return catalogError(c, err, "Failed to delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) UploadImage(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return handlers.Fail(c, fiber.StatusBadRequest, "image file is required")
	}
	if fh.Size > maxImageSize {
		return handlers.Fail(c, fiber.StatusRequestEntityTooLarge, "image must be at most 5MB")
	}
	f, err := fh.Open()
	if err != nil {
		return handlers.Fail(c, fiber.StatusBadRequest, "Failed to read image")
	}
	defer f.Close()

	product, err := h.products.AddImage(c.UserContext(), tenant.GetVendorID(c), id,
		fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		return catalogError(c, err, "Failed to upload image")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *Handler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.products.Export(c.UserContext(), tenant.GetVendorID(c), &buf); err != nil {
		slog.Error("product export failed", "vendor_id", tenant.GetVendorID(c), "error", err)
		return handlers.Fail(c, fiber.StatusInternalServerError, "Failed to export products")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.xlsx"`)
	return c.Send(buf.Bytes())
}

// --- variants ---

func (h *Handler) GenerateVariants(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	var input MatrixInput
	if err := c.BodyParser(&input); err != nil {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	preview, _ := strconv.ParseBool(c.Query("preview", "false"))

	specs, err := h.products.ApplyMatrix(c.UserContext(), tenant.GetVendorID(c), id, input, preview)
	if err != nil {
		return catalogError(c, err, "Failed to generate variants")
	}

	status := fiber.StatusCreated
	if preview {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"preview":  preview,
		"variants": specs,
	})
}

func (h *Handler) UpdateVariant(c *fiber.Ctx) error {
	productID, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	variantID, ok := handlers.ParamID(c, "variant_id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid variant ID")
	}
	var req UpdateVariantRequest
	if ok, err := handlers.ParseBody(c, &req); !ok {
		return err
	}
	variant, err := h.products.UpdateVariant(c.UserContext(), tenant.GetVendorID(c), productID, variantID, &req)
	if err != nil {
		return catalogError(c, err, "Failed to update variant")
	}
	return c.JSON(variant)
}

func (h *Handler) DeleteVariant(c *fiber.Ctx) error {
	productID, ok := handlers.ParamID(c, "id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	variantID, ok := handlers.ParamID(c, "variant_id")
	if !ok {
		return handlers.Fail(c, fiber.StatusBadRequest, "Invalid variant ID")
	}
	if err := h.products.DeleteVariant(c.UserContext(), tenant.GetVendorID(c), productID, variantID); err != nil {
		return catalogError(c, err, "Failed to delete variant")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
