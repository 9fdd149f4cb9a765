package repository

import (
	"errors"
	"testing"

	"github.com/storefront-next/internal/models"
)

func createTestCustomer(t *testing.T, repo *GormCustomerRepository) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		ID:           "c-1",
		Email:        "Ann@Example.com",
		PasswordHash: "hash",
		FirstName:    "Ann",
		Version:      1,
		Addresses: []models.CustomerAddress{
			{ID: "a-1", StreetName: "Main 1", PostalCode: "10115", City: "Berlin", Country: "DE"},
		},
		DefaultShippingAddressID: "a-1",
	}
	if err := repo.Create(customer); err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	return customer
}

func TestCustomerRepositoryGetByEmailCaseInsensitive(t *testing.T) {
	repo := NewCustomerRepository(openTestDB(t))
	createTestCustomer(t, repo)
	got, err := repo.GetByEmail("ann@example.COM")
	if err != nil || got == nil {
		t.Fatalf("lookup failed: %+v %v", got, err)
	}
	if len(got.Addresses) != 1 || got.Addresses[0].ID != "a-1" {
		t.Fatalf("addresses not preloaded: %+v", got.Addresses)
	}
}

func TestCustomerRepositoryLookupMissing(t *testing.T) {
	db, logs := withErrorLog(openTestDB(t))
	repo := NewCustomerRepository(db)
	createTestCustomer(t, repo)

	if got, err := repo.GetByEmail("nobody@example.com"); err != nil || got != nil {
		t.Fatalf("unknown email should be nil, got %+v %v", got, err)
	}
	if got, err := repo.GetByID("c-404"); err != nil || got != nil {
		t.Fatalf("unknown id should be nil, got %+v %v", got, err)
	}
	if len(logs.lines) != 0 {
		t.Fatalf("lookup misses should not log errors: %v", logs.lines)
	}
}

func TestCustomerRepositorySaveVersioned(t *testing.T) {
	repo := NewCustomerRepository(openTestDB(t))
	createTestCustomer(t, repo)

	update := CustomerUpdate{
		ExpectedVersion: 1,
		FirstName:       "Anna",
		Email:           "ann@example.com",
		DefaultShipping: "a-2",
		DefaultBilling:  "a-1",
	}
	addresses := []models.CustomerAddress{
		{ID: "a-2", StreetName: "Side 2", PostalCode: "80331", City: "Munich", Country: "DE"},
		{ID: "a-1", StreetName: "Main 1", PostalCode: "10115", City: "Berlin", Country: "DE"},
	}
	if err := repo.SaveVersioned("c-1", update, addresses); err != nil {
		t.Fatalf("save versioned failed: %v", err)
	}

	got, err := repo.GetByID("c-1")
	if err != nil || got == nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Version != 2 || got.FirstName != "Anna" || got.DefaultBillingAddressID != "a-1" {
		t.Fatalf("unexpected customer: %+v", got)
	}
	if len(got.Addresses) != 2 || got.Addresses[0].ID != "a-2" {
		t.Fatalf("address order not kept: %+v", got.Addresses)
	}

	if err := repo.SaveVersioned("c-1", update, nil); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected stale version error, got %v", err)
	}
	again, _ := repo.GetByID("c-1")
	if len(again.Addresses) != 2 {
		t.Fatalf("stale update must not touch addresses")
	}
}
