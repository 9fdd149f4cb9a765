package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/logger"

	"golang.org/x/sync/singleflight"
)

const defaultCategoryCacheTTL = 5 * time.Minute

// CatalogService 商品目录服务
type CatalogService struct {
	commerce    commerce.Client
	categoryTTL time.Duration
	group       singleflight.Group
}

// NewCatalogService 创建目录服务
func NewCatalogService(client commerce.Client) *CatalogService {
	return &CatalogService{commerce: client, categoryTTL: defaultCategoryCacheTTL}
}

// ListProducts 分页列出上架商品
func (s *CatalogService) ListProducts(ctx context.Context, query commerce.ProductQuery) (*commerce.ProductPage, error) {
	query.Search = ""
	page, err := s.commerce.GetAllProducts(ctx, query)
	if err != nil {
		return nil, mapCatalogError(err, ErrProductFetchFailed)
	}
	return page, nil
}

// SearchProducts 按关键字搜索，关键字为空时退化为列表
func (s *CatalogService) SearchProducts(ctx context.Context, query commerce.ProductQuery) (*commerce.ProductPage, error) {
	query.Search = strings.TrimSpace(query.Search)
	if query.Search == "" {
		return s.ListProducts(ctx, query)
	}
	page, err := s.commerce.SearchProducts(ctx, query)
	if err != nil {
		return nil, mapCatalogError(err, ErrProductFetchFailed)
	}
	return page, nil
}

// GetProduct 获取单个商品
func (s *CatalogService) GetProduct(ctx context.Context, id, locale string) (*commerce.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrProductNotFound
	}
	product, err := s.commerce.GetProduct(ctx, id, locale)
	if err != nil {
		return nil, mapCatalogError(err, ErrProductFetchFailed)
	}
	return product, nil
}

// GetCategories 获取分类树，按语言缓存
func (s *CatalogService) GetCategories(ctx context.Context, locale string) ([]commerce.Category, error) {
	key := "catalog:categories:" + locale
	var cached []commerce.Category
	if hit, err := cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.commerce.GetCategories(ctx, locale)
	})
	if err != nil {
		return nil, mapCatalogError(err, ErrCategoryFetchFailed)
	}
	tree := result.([]commerce.Category)
	if err := cache.SetJSON(ctx, key, tree, s.categoryTTL); err != nil {
		logger.Ctx(ctx).Warnw("category_cache_write_failed", "locale", locale, "error", err)
	}
	return tree, nil
}

func mapCatalogError(err, fallback error) error {
	switch {
	case errors.Is(err, commerce.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, commerce.ErrUnavailable):
		return ErrCommerceUnavailable
	default:
		return fmt.Errorf("%w: %v", fallback, err)
	}
}
