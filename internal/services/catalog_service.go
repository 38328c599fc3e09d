package services

import (
	"context"
	"errors"
	"log"
	"time"

	"golang-storefront-backend/internal/models"
	"golang-storefront-backend/internal/repositories"
	"golang-storefront-backend/pkg/cache"
	"golang-storefront-backend/pkg/messaging"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductInfo is the resolved catalog view the cart depends on: current
// name, effective price and availability for one product.
type ProductInfo struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

const productCacheTTL = 5 * time.Minute

type CatalogService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.ProductCategoryRepository
	cache        cache.Cache
	events       messaging.Publisher
}

func NewCatalogService(
	productRepo repositories.ProductRepository,
	categoryRepo repositories.ProductCategoryRepository,
	cache cache.Cache,
	events messaging.Publisher,
) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		events:       events,
	}
}

type CreateProductRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	CategoryID    string   `json:"category_id" binding:"required"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	ImageUrls     []string `json:"image_urls"`
	Tags          []string `json:"tags"`
}

type UpdateProductRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	CategoryID    *string  `json:"category_id,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	ImageUrls     []string `json:"image_urls,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	IsAvailable   *bool    `json:"is_available,omitempty"`
}

type SearchProductsRequest struct {
	Name       string
	CategoryID string
	MinPrice   *float64
	MaxPrice   *float64
	Tags       []string
	Limit      int
	Offset     int
}

type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// Resolve answers the cart's lookup for one product: current name,
// effective price and availability. A product the catalog does not know is
// ErrProductNotFound.
func (s *CatalogService) Resolve(ctx context.Context, productID string) (*ProductInfo, error) {
	cacheKey := "product:" + productID
	var cached ProductInfo
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	objectID, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, objectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, storageError(err)
	}

	info := &ProductInfo{
		ProductID: productID,
		Name:      product.Name,
		Price:     product.EffectivePrice(),
		Available: product.IsAvailable,
	}

	// Cached briefly; every product write below invalidates the entry so
	// cart totals keep tracking current prices.
	s.cache.Set(ctx, cacheKey, info, productCacheTTL)

	return info, nil
}

func (s *CatalogService) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	objectID, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, objectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, storageError(err)
	}
	return product, nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, req *SearchProductsRequest) (*ProductListResponse, error) {
	filter := repositories.ProductFilter{
		Name:          req.Name,
		MinPrice:      req.MinPrice,
		MaxPrice:      req.MaxPrice,
		Tags:          req.Tags,
		AvailableOnly: true,
		Limit:         req.Limit,
		Offset:        req.Offset,
	}

	if req.CategoryID != "" {
		categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
		if err != nil {
			return nil, errors.New("invalid category ID")
		}
		filter.CategoryID = &categoryID
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	products, total, err := s.productRepo.Search(ctx, filter)
	if err != nil {
		return nil, storageError(err)
	}

	return &ProductListResponse{Products: products, Total: total}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		return nil, errors.New("invalid category ID")
	}

	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		return nil, errors.New("category not found")
	}

	product := &models.Product{
		CategoryID:    categoryID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		ImageUrls:     req.ImageUrls,
		IsAvailable:   true,
		Tags:          req.Tags,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, storageError(err)
	}

	s.publishCatalogEvent(ctx, "product_created", product.ID.Hex())

	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, req *UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CategoryID != nil {
		categoryID, err := primitive.ObjectIDFromHex(*req.CategoryID)
		if err != nil {
			return nil, errors.New("invalid category ID")
		}
		if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
			return nil, errors.New("category not found")
		}
		product.CategoryID = categoryID
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = req.DiscountPrice
	}
	if req.ImageUrls != nil {
		product.ImageUrls = req.ImageUrls
	}
	if req.Tags != nil {
		// The tag list is replaced wholesale; added and removed tags fall
		// out of the overwrite.
		product.Tags = req.Tags
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, storageError(err)
	}

	s.invalidateProduct(ctx, productID)
	s.publishCatalogEvent(ctx, "product_updated", productID)

	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	objectID, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return ErrProductNotFound
	}

	if err := s.productRepo.Delete(ctx, objectID); err != nil {
		return storageError(err)
	}

	s.invalidateProduct(ctx, productID)
	s.publishCatalogEvent(ctx, "product_deleted", productID)

	return nil
}

func (s *CatalogService) GetCategories(ctx context.Context) ([]models.ProductCategory, error) {
	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return categories, nil
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (s *CatalogService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.ProductCategory, error) {
	category := &models.ProductCategory{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, storageError(err)
	}
	return category, nil
}

func (s *CatalogService) invalidateProduct(ctx context.Context, productID string) {
	if err := s.cache.Delete(ctx, "product:"+productID); err != nil {
		log.Printf("failed to invalidate product cache for %s: %v", productID, err)
	}
}

func (s *CatalogService) publishCatalogEvent(ctx context.Context, eventType, productID string) {
	event := messaging.CatalogEvent{
		Type:      eventType,
		ProductID: productID,
	}
	if err := s.events.Publish(ctx, messaging.CatalogEventsTopic, productID, event); err != nil {
		log.Printf("failed to publish catalog event %s for %s: %v", eventType, productID, err)
	}
}
