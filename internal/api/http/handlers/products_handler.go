package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-tickets/internal/api/dto"
	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/service"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// ProductsHandler exposes the catalog.
type ProductsHandler struct {
	catalog *service.CatalogService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(catalogService *service.CatalogService) *ProductsHandler {
	return &ProductsHandler{catalog: catalogService}
}

// ListProducts GET /products?category=.
func (h *ProductsHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListProducts(c.UserContext(), c.Query("category"))
	if err != nil {
		return err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, productResponse(p))
	}
	return c.JSON(fiber.Map{"data": items})
}

// PutProduct PUT /staff/products/:id.
func (h *ProductsHandler) PutProduct(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	stock := domain.FiniteStock(req.Stock)
	if req.Stock < 0 {
		stock = domain.UnlimitedStock()
	}
	product, err := h.catalog.UpsertProduct(c.UserContext(), actor, domain.Product{
		ID:                c.Params("id"),
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		Stock:             stock,
		Category:          req.Category,
		Emoji:             req.Emoji,
		RenewalPeriodDays: req.RenewalPeriodDays,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": productResponse(*product)})
}

func productResponse(p domain.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		Stock:             p.Stock.String(),
		Category:          p.Category,
		Emoji:             p.Emoji,
		RenewalPeriodDays: p.RenewalPeriodDays,
	}
}
