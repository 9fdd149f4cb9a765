package repository

import (
	"testing"
	"time"

	"github.com/storefront-next/internal/models"
)

func TestCartRepositorySaveReplacesItems(t *testing.T) {
	repo := NewCartRepository(openTestDB(t))
	session := &models.CartSession{OwnerKey: "guest:abc", PromoCode: "PROMO"}
	items := []models.CartLineItem{
		{ProductID: "1", Name: "Mug", UnitPrice: models.MustMoney("9.50"), Quantity: 2},
		{ProductID: "2", Name: "Tee", UnitPrice: models.MustMoney("20.00"), Quantity: 1},
	}
	if err := repo.Save(session, items); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	session.PromoCode = ""
	if err := repo.Save(session, []models.CartLineItem{
		{ProductID: "2", Name: "Tee", UnitPrice: models.MustMoney("20.00"), Quantity: 4},
	}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, loadedItems, err := repo.Load("guest:abc")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil || loaded.PromoCode != "" {
		t.Fatalf("unexpected session: %+v", loaded)
	}
	if len(loadedItems) != 1 || loadedItems[0].ProductID != "2" || loadedItems[0].Quantity != 4 {
		t.Fatalf("unexpected items: %+v", loadedItems)
	}
	if loadedItems[0].UnitPrice.String() != "20.00" {
		t.Fatalf("unexpected price: %s", loadedItems[0].UnitPrice)
	}
}

func TestCartRepositoryLoadMissing(t *testing.T) {
	db, logs := withErrorLog(openTestDB(t))
	repo := NewCartRepository(db)
	session, items, err := repo.Load("customer:none")
	if err != nil || session != nil || items != nil {
		t.Fatalf("missing cart should be nil, got %+v %+v %v", session, items, err)
	}
	if len(logs.lines) != 0 {
		t.Fatalf("missing cart should not log errors: %v", logs.lines)
	}
}

func TestCartRepositoryDeleteIfExpired(t *testing.T) {
	repo := NewCartRepository(openTestDB(t))
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	if err := repo.Save(&models.CartSession{OwnerKey: "guest:old", ExpiresAt: &past}, []models.CartLineItem{{ProductID: "1", Quantity: 1}}); err != nil {
		t.Fatalf("save old failed: %v", err)
	}
	if err := repo.Save(&models.CartSession{OwnerKey: "guest:new", ExpiresAt: &future}, nil); err != nil {
		t.Fatalf("save new failed: %v", err)
	}

	owners, err := repo.ListExpiredOwners(now, 10)
	if err != nil || len(owners) != 1 || owners[0] != "guest:old" {
		t.Fatalf("unexpected expired owners: %v %v", owners, err)
	}

	deleted, err := repo.DeleteIfExpired("guest:old", now)
	if err != nil || !deleted {
		t.Fatalf("expired cart should be deleted: %v %v", deleted, err)
	}
	deleted, err = repo.DeleteIfExpired("guest:new", now)
	if err != nil || deleted {
		t.Fatalf("fresh cart should be kept: %v %v", deleted, err)
	}
	if session, _, _ := repo.Load("guest:old"); session != nil {
		t.Fatalf("expired session still present")
	}
}
