package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// CatalogService lets members browse products and staff maintain them.
type CatalogService struct {
	catalog repository.CatalogRepository
	logger  *zap.Logger
}

func NewCatalogService(catalog repository.CatalogRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, logger: logger}
}

// ListProducts returns the catalog, optionally narrowed to one category.
// Sold out products are left out.
func (s *CatalogService) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := products[:0]
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if !p.Stock.Available() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// UpsertProduct creates or replaces a catalog entry. Carts keep the price
// they captured; only later adds see the new values.
func (s *CatalogService) UpsertProduct(ctx context.Context, staff domain.Actor, product domain.Product) (*domain.Product, error) {
	if err := requireStaff(staff); err != nil {
		return nil, err
	}
	product.ID = strings.TrimSpace(product.ID)
	product.Name = strings.TrimSpace(product.Name)
	switch {
	case product.ID == "":
		return nil, apperrors.NewValidationError("product id required", nil)
	case product.Name == "":
		return nil, apperrors.NewValidationError("product name required", nil)
	case product.Price < 0:
		return nil, apperrors.NewValidationError("price cannot be negative", map[string]any{"price": product.Price})
	case product.RenewalPeriodDays < 0:
		return nil, apperrors.NewValidationError("renewal period cannot be negative", nil)
	}
	if err := s.catalog.Put(ctx, product); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("product saved",
		zap.String("product_id", product.ID),
		zap.String("staff_id", staff.ID),
		zap.String("stock", product.Stock.String()))
	return &product, nil
}
