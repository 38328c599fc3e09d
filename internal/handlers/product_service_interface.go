package handlers

import (
	"context"

	"golang-storefront-backend/internal/models"
	"golang-storefront-backend/internal/services"
)

// ProductServiceInterface defines the catalog operations the handler needs
type ProductServiceInterface interface {
	GetProductByID(ctx context.Context, productID string) (*models.Product, error)
	SearchProducts(ctx context.Context, req *services.SearchProductsRequest) (*services.ProductListResponse, error)
	CreateProduct(ctx context.Context, req *services.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID string, req *services.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	GetCategories(ctx context.Context) ([]models.ProductCategory, error)
	CreateCategory(ctx context.Context, req *services.CreateCategoryRequest) (*models.ProductCategory, error)
}
