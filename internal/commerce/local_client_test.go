package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newLocalTestClient(t *testing.T) (*LocalClient, *gorm.DB) {
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
	client := NewLocalClient(
		repository.NewCustomerRepository(db),
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
	).WithBcryptCost(bcrypt.MinCost)
	return client, db
}

func TestLocalClientRegisterAndLogin(t *testing.T) {
	client, _ := newLocalTestClient(t)
	ctx := context.Background()

	created, err := client.RegisterCustomer(ctx, CustomerDraft{
		Email:     "Ann@Example.com",
		Password:  "Secret123",
		FirstName: "Ann",
		LastName:  "Lee",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created.Email != "ann@example.com" || created.Version != 1 {
		t.Fatalf("unexpected customer: %+v", created)
	}

	if _, err := client.RegisterCustomer(ctx, CustomerDraft{Email: "ann@example.com", Password: "x"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := client.LoginCustomer(ctx, "ANN@example.com", "Secret123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := client.LoginCustomer(ctx, "ann@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := client.LoginCustomer(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLocalClientUpdateCustomerVersioned(t *testing.T) {
	client, _ := newLocalTestClient(t)
	ctx := context.Background()
	created, err := client.RegisterCustomer(ctx, CustomerDraft{Email: "bo@example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	actions := []UpdateAction{
		{Action: ActionAddAddress, Address: &Address{ID: "addr-1", StreetName: "Main 1", PostalCode: "10115", City: "Berlin", Country: "de"}},
		{Action: ActionSetDefaultShippingAddress, AddressID: "addr-1"},
		{Action: ActionSetFirstName, Value: "Bo"},
	}
	updated, err := client.UpdateCustomer(ctx, created.ID, created.Version, actions)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 2 || updated.FirstName != "Bo" || updated.DefaultShippingAddressID != "addr-1" {
		t.Fatalf("unexpected updated customer: %+v", updated)
	}
	if len(updated.Addresses) != 1 || updated.Addresses[0].Country != "DE" {
		t.Fatalf("unexpected addresses: %+v", updated.Addresses)
	}

	if _, err := client.UpdateCustomer(ctx, created.ID, 1, []UpdateAction{{Action: ActionSetLastName, Value: "X"}}); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if _, err := client.UpdateCustomer(ctx, created.ID, 2, []UpdateAction{{Action: "explode"}}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}

	removed, err := client.UpdateCustomer(ctx, created.ID, 2, []UpdateAction{{Action: ActionRemoveAddress, AddressID: "addr-1"}})
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(removed.Addresses) != 0 || removed.DefaultShippingAddressID != "" {
		t.Fatalf("remove should clear address and default: %+v", removed)
	}
}

func TestLocalClientCatalog(t *testing.T) {
	client, db := newLocalTestClient(t)
	ctx := context.Background()

	root := models.Category{Slug: "home", NameJSON: models.JSON{"en-US": "Home", "zh-CN": "家居"}}
	if err := db.Create(&root).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	child := models.Category{ParentID: &root.ID, Slug: "kitchen", NameJSON: models.JSON{"en-US": "Kitchen"}}
	if err := db.Create(&child).Error; err != nil {
		t.Fatalf("create child failed: %v", err)
	}
	product := models.Product{
		CategoryID:            child.ID,
		Slug:                  "mug",
		TitleJSON:             models.JSON{"en-US": "Mug", "zh-CN": "杯子"},
		PriceAmount:           models.MustMoney("10.00"),
		DiscountedPriceAmount: models.MustMoney("8.00"),
		HasDiscount:           true,
		IsActive:              true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	tree, err := client.GetCategories(ctx, "zh-CN")
	if err != nil {
		t.Fatalf("categories failed: %v", err)
	}
	if len(tree) != 1 || tree[0].Name != "家居" || len(tree[0].Children) != 1 || tree[0].Children[0].Name != "Kitchen" {
		t.Fatalf("unexpected tree: %+v", tree)
	}

	got, err := client.GetProduct(ctx, fmt.Sprint(product.ID), "zh-CN")
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if got.Name != "杯子" || got.DiscountedPrice == nil || got.DiscountedPrice.String() != "8.00" {
		t.Fatalf("unexpected product: %+v", got)
	}
	if _, err := client.GetProduct(ctx, "abc", "en-US"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	page, err := client.SearchProducts(ctx, ProductQuery{Locale: "en-US", Search: "mug"})
	if err != nil || page.Total != 1 {
		t.Fatalf("search failed: %+v %v", page, err)
	}
}

func TestApplyActionsLeavesOriginalOnFailure(t *testing.T) {
	original := Customer{ID: "c", Addresses: []Address{{ID: "a"}}}
	_, err := ApplyActions(original, []UpdateAction{
		{Action: ActionRemoveAddress, AddressID: "a"},
		{Action: ActionSetDefaultBillingAddress, AddressID: "a"},
	})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if len(original.Addresses) != 1 {
		t.Fatalf("original customer must not change")
	}
}
