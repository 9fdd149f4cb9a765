package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	return db
}

func useTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.Use(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() { _ = cache.Close() })
	return mr
}

// stubCommerce 内存商务后端
type stubCommerce struct {
	mu        sync.Mutex
	products  map[string]commerce.Product
	customers map[string]commerce.Customer
	updateErr error
	updates   [][]commerce.UpdateAction
}

func newStubCommerce() *stubCommerce {
	return &stubCommerce{
		products:  map[string]commerce.Product{},
		customers: map[string]commerce.Customer{},
	}
}

func (s *stubCommerce) addProduct(id, name, price string, discounted string) {
	p := commerce.Product{ID: id, Name: name, Price: models.MustMoney(price)}
	if discounted != "" {
		d := models.MustMoney(discounted)
		p.DiscountedPrice = &d
	}
	s.products[id] = p
}

func (s *stubCommerce) RegisterCustomer(_ context.Context, draft commerce.CustomerDraft) (*commerce.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Email == strings.ToLower(draft.Email) {
			return nil, commerce.ErrEmailTaken
		}
	}
	c := commerce.Customer{
		ID:        fmt.Sprintf("c-%d", len(s.customers)+1),
		Email:     strings.ToLower(draft.Email),
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		Version:   1,
	}
	s.customers[c.ID] = c
	return &c, nil
}

func (s *stubCommerce) LoginCustomer(_ context.Context, email, password string) (*commerce.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Email == strings.ToLower(email) && password == "Secret123" {
			out := c.Clone()
			return &out, nil
		}
	}
	return nil, commerce.ErrInvalidCredentials
}

func (s *stubCommerce) GetCustomer(_ context.Context, id string) (*commerce.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, commerce.ErrCustomerNotFound
	}
	out := c.Clone()
	return &out, nil
}

func (s *stubCommerce) UpdateCustomer(_ context.Context, id string, version int64, actions []commerce.UpdateAction) (*commerce.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, actions)
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	c, ok := s.customers[id]
	if !ok {
		return nil, commerce.ErrCustomerNotFound
	}
	if c.Version != version {
		return nil, commerce.ErrVersionConflict
	}
	next, err := commerce.ApplyActions(c, actions)
	if err != nil {
		return nil, err
	}
	next.Version++
	s.customers[id] = next
	out := next.Clone()
	return &out, nil
}

func (s *stubCommerce) GetAllProducts(_ context.Context, query commerce.ProductQuery) (*commerce.ProductPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := &commerce.ProductPage{Page: query.Page, PageSize: query.PageSize}
	for _, p := range s.products {
		page.Items = append(page.Items, p)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

func (s *stubCommerce) GetProduct(_ context.Context, id, _ string) (*commerce.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, commerce.ErrProductNotFound
	}
	return &p, nil
}

func (s *stubCommerce) SearchProducts(ctx context.Context, query commerce.ProductQuery) (*commerce.ProductPage, error) {
	return s.GetAllProducts(ctx, query)
}

func (s *stubCommerce) GetCategories(_ context.Context, _ string) ([]commerce.Category, error) {
	return []commerce.Category{}, nil
}
