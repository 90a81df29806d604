package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"authgate/internal/models"
	"authgate/internal/store"
	"authgate/pkg/logger"
	"authgate/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	productListCacheKey = "products:all"
	defaultPageLimit    = 10
)

// ProductService manages the catalog. The first listing page is cached in
// the shared store and invalidated on any write; cache failures are logged
// and ignored, never surfaced to the request.
type ProductService struct {
	db       *gorm.DB
	cache    store.Store
	cacheTTL time.Duration
}

func NewProductService(db *gorm.DB, cache store.Store, cacheTTL time.Duration) *ProductService {
	return &ProductService{db: db, cache: cache, cacheTTL: cacheTTL}
}

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Description string  `json:"description" binding:"max=500"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Quantity    int     `json:"quantity" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=2,max=100"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Quantity    *int     `json:"quantity" binding:"omitempty,min=0"`
}

type ProductListRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1,max=100"`
	Search string `form:"search"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type ProductListResult struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// List returns a page of products, optionally filtered by a search term
// over name and description. Only the default-shaped first page is cached;
// the cache key carries no query parameters.
func (s *ProductService) List(ctx context.Context, req *ProductListRequest) (*ProductListResult, error) {
	cacheable := req.Page == 1 && req.Limit == defaultPageLimit && req.Search == ""

	if cacheable {
		if cached, err := s.cache.Get(ctx, productListCacheKey); err == nil {
			var result ProductListResult
			if json.Unmarshal([]byte(cached), &result) == nil {
				return &result, nil
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			logger.Warn().Err(err).Msg("product cache read failed")
		}
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})
	if req.Search != "" {
		like := "%" + req.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var products []models.Product
	err := query.
		Order("created_at DESC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	pages := (total + int64(req.Limit) - 1) / int64(req.Limit)
	result := &ProductListResult{
		Products:   products,
		Pagination: Pagination{Page: req.Page, Limit: req.Limit, Total: total, Pages: pages},
	}

	if cacheable {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, productListCacheKey, string(data), s.cacheTTL); err != nil {
				logger.Warn().Err(err).Msg("product cache write failed")
			}
		}
	}

	return result, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest, userID string) (*models.Product, error) {
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		CreatedBy:   userID,
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return product, nil
}

// Update modifies a product owned by userID; admins may modify any product.
func (s *ProductService) Update(ctx context.Context, id string, req *UpdateProductRequest, userID, role string) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.CreatedBy != userID && role != "admin" {
		return nil, response.Forbidden("You do not own this product")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	s.invalidateListCache(ctx)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id, userID, role string) error {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.CreatedBy != userID && role != "admin" {
		return response.Forbidden("You do not own this product")
	}

	if err := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return err
	}

	s.invalidateListCache(ctx)
	return nil
}

func (s *ProductService) invalidateListCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, productListCacheKey); err != nil {
		logger.Warn().Err(err).Msg("product cache invalidation failed")
	}
}
