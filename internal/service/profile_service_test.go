package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/repository"
)

type profileFixture struct {
	svc      *ProfileService
	stub     *stubCommerce
	audit    *ProfileAuditService
	customer *commerce.Customer
}

func newProfileFixture(t *testing.T, sessions EditSessionStore) profileFixture {
	t.Helper()
	db := openServiceTestDB(t)
	stub := newStubCommerce()
	customer, err := stub.RegisterCustomer(context.Background(), commerce.CustomerDraft{
		Email: "ann@example.com", Password: "Secret123", FirstName: "Ann", LastName: "Lee",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if sessions == nil {
		sessions = NewMemoryEditSessionStore(time.Minute)
	}
	audit := NewProfileAuditService(repository.NewProfileAuditLogRepository(db))
	svc := NewProfileService(config.ProfileConfig{MinimumAge: 13}, stub, sessions, audit, nil)
	return profileFixture{svc: svc, stub: stub, audit: audit, customer: customer}
}

func berlin() commerce.Address {
	return commerce.Address{StreetName: "Unter den Linden 1", City: "Berlin", PostalCode: "10115", Country: "de"}
}

func TestProfileServiceAddAddressPersistsAndAudits(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()

	view, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping)
	if err != nil {
		t.Fatalf("add address failed: %v", err)
	}
	if view.Mode != EditModeViewing || len(view.Profile.Addresses) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
	addrID := view.Profile.Addresses[0].ID
	if view.Profile.DefaultShippingAddressID != addrID || view.Profile.Addresses[0].Country != "DE" {
		t.Fatalf("new address should be default shipping: %+v", view.Profile)
	}
	if !view.Defaults.CanAddNewAddress || view.Defaults.MissingAddressType != AddressKindBilling {
		t.Fatalf("billing should be missing: %+v", view.Defaults)
	}
	stored, _ := f.stub.GetCustomer(ctx, f.customer.ID)
	if stored.Version != 2 || stored.DefaultShippingAddressID != addrID {
		t.Fatalf("backend not updated: %+v", stored)
	}

	logs, err := f.audit.List(f.customer.ID, 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one audit log, got %v err=%v", logs, err)
	}
	if logs[0].Version != 2 || len(logs[0].Actions) != 2 || logs[0].Actions[0] != commerce.ActionAddAddress {
		t.Fatalf("unexpected audit entry: %+v", logs[0])
	}

	if _, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping); !errors.Is(err, ErrAddressAddNotAllowed) {
		t.Fatalf("second shipping address should be rejected, got %v", err)
	}
}

func TestProfileServiceToggleDefault(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()
	view, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindBilling)
	if err != nil {
		t.Fatalf("add address failed: %v", err)
	}
	addrID := view.Profile.Addresses[0].ID

	view, err = f.svc.SetDefaultAddress(ctx, f.customer.ID, i18n.LocaleEN, addrID, AddressKindShipping)
	if err != nil {
		t.Fatalf("set default failed: %v", err)
	}
	if !view.Defaults.SameAddress || view.Defaults.CanAddNewAddress {
		t.Fatalf("both defaults should point at one address: %+v", view.Defaults)
	}

	view, err = f.svc.SetDefaultAddress(ctx, f.customer.ID, i18n.LocaleEN, addrID, AddressKindShipping)
	if err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	stored, _ := f.stub.GetCustomer(ctx, f.customer.ID)
	if stored.DefaultShippingAddressID != "" || stored.DefaultBillingAddressID != addrID {
		t.Fatalf("toggle should clear shipping only: %+v", stored)
	}
	if view.Defaults.MissingAddressType != AddressKindShipping {
		t.Fatalf("shipping should be missing: %+v", view.Defaults)
	}
}

func TestProfileServiceAddAddressRollsBackOnBackendFailure(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()

	f.stub.updateErr = commerce.ErrUnavailable
	view, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping)
	if !errors.Is(err, ErrCustomerUpdateFailed) {
		t.Fatalf("expected update failure, got %v", err)
	}
	if len(view.Profile.Addresses) != 0 || view.Profile.DefaultShippingAddressID != "" {
		t.Fatalf("failed add should be reverted: %+v", view.Profile)
	}
	if view.Mode != EditModeAdding || view.Error == "" {
		t.Fatalf("expected adding mode with error, got mode=%s error=%q", view.Mode, view.Error)
	}
	stored, _ := f.stub.GetCustomer(ctx, f.customer.ID)
	if len(stored.Addresses) != 0 {
		t.Fatalf("backend should be untouched: %+v", stored)
	}

	f.stub.updateErr = nil
	view, err = f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping)
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if view.Mode != EditModeViewing || len(view.Profile.Addresses) != 1 {
		t.Fatalf("unexpected view after retry: %+v", view)
	}
	stored, _ = f.stub.GetCustomer(ctx, f.customer.ID)
	if len(stored.Addresses) != 1 || stored.DefaultShippingAddressID != view.Profile.Addresses[0].ID {
		t.Fatalf("backend not updated on retry: %+v", stored)
	}
}

func TestProfileServiceToggleRollsBackOnBackendFailure(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()
	view, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping)
	if err != nil {
		t.Fatalf("add address failed: %v", err)
	}
	addrID := view.Profile.Addresses[0].ID

	f.stub.updateErr = commerce.ErrUnavailable
	view, err = f.svc.SetDefaultAddress(ctx, f.customer.ID, i18n.LocaleEN, addrID, AddressKindBilling)
	if !errors.Is(err, ErrCustomerUpdateFailed) || !errors.Is(err, ErrCommerceUnavailable) {
		t.Fatalf("expected update failure, got %v", err)
	}
	if view.Profile.DefaultBillingAddressID != "" {
		t.Fatalf("optimistic toggle should be reverted: %+v", view.Profile)
	}
	if view.Error == "" {
		t.Fatalf("expected top-level error message")
	}

	f.stub.updateErr = nil
	view, err = f.svc.Get(ctx, f.customer.ID, i18n.LocaleEN)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if view.Profile.DefaultShippingAddressID != addrID || view.Profile.DefaultBillingAddressID != "" {
		t.Fatalf("confirmed profile changed: %+v", view.Profile)
	}
}

func TestProfileServiceEditSessionSurvivesAcrossInstances(t *testing.T) {
	mr := useTestRedis(t)
	store := NewEditSessionStore(time.Minute)
	if _, ok := store.(*RedisEditSessionStore); !ok {
		t.Fatalf("expected redis store when cache is enabled, got %T", store)
	}
	f := newProfileFixture(t, store)
	ctx := context.Background()
	if _, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping); err != nil {
		t.Fatalf("add address failed: %v", err)
	}

	view, err := f.svc.BeginEdit(ctx, f.customer.ID, i18n.LocaleEN, 0)
	if err != nil || view.Mode != EditModeEditing || view.EditIndex != 0 {
		t.Fatalf("begin edit failed: %+v err=%v", view, err)
	}
	key := cache.Key(editSessionKey(f.customer.ID))
	if !mr.Exists(key) {
		t.Fatalf("expected edit session in redis under %s", key)
	}

	other := NewProfileService(config.ProfileConfig{}, f.stub, NewEditSessionStore(time.Minute), f.audit, nil)
	if _, err := other.UpdateAddressField(ctx, f.customer.ID, i18n.LocaleEN, 0, "postalCode", "12"); err != nil {
		t.Fatalf("update field failed: %v", err)
	}
	view, err = other.SaveAddresses(ctx, f.customer.ID, i18n.LocaleEN)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if view.Mode != EditModeEditing || view.AddressErrors[0] == "" {
		t.Fatalf("invalid edit should stay in editing with error: %+v", view)
	}

	if _, err := f.svc.UpdateAddressField(ctx, f.customer.ID, i18n.LocaleEN, 0, "postal_code", "10117"); err != nil {
		t.Fatalf("update field failed: %v", err)
	}
	view, err = f.svc.SaveAddresses(ctx, f.customer.ID, i18n.LocaleEN)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if view.Mode != EditModeViewing || view.Profile.Addresses[0].PostalCode != "10117" {
		t.Fatalf("unexpected view after save: %+v", view)
	}
	if mr.Exists(key) {
		t.Fatalf("edit session should be cleared after save")
	}
	stored, _ := f.stub.GetCustomer(ctx, f.customer.ID)
	if stored.Addresses[0].PostalCode != "10117" {
		t.Fatalf("backend not updated: %+v", stored.Addresses)
	}
}

func TestProfileServiceCancelDiscardsEdits(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping); err != nil {
		t.Fatalf("add address failed: %v", err)
	}
	if _, err := f.svc.BeginEdit(ctx, f.customer.ID, i18n.LocaleEN, 0); err != nil {
		t.Fatalf("begin edit failed: %v", err)
	}
	if _, err := f.svc.UpdateAddressField(ctx, f.customer.ID, i18n.LocaleEN, 0, "city", "Hamburg"); err != nil {
		t.Fatalf("update field failed: %v", err)
	}
	view, err := f.svc.CancelEdit(ctx, f.customer.ID, i18n.LocaleEN)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if view.Mode != EditModeViewing || view.Profile.Addresses[0].City != "Berlin" {
		t.Fatalf("cancel should restore confirmed profile: %+v", view)
	}
	if _, err := f.svc.UpdateAddressField(ctx, f.customer.ID, i18n.LocaleEN, 0, "city", "Hamburg"); !errors.Is(err, ErrEditStateInvalid) {
		t.Fatalf("field edits require an edit session, got %v", err)
	}
}

func TestProfileServiceVersionConflictDropsSession(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()
	view, err := f.svc.AddAddress(ctx, f.customer.ID, i18n.LocaleEN, berlin(), AddressKindShipping)
	if err != nil {
		t.Fatalf("add address failed: %v", err)
	}
	addrID := view.Profile.Addresses[0].ID
	if _, err := f.svc.BeginEdit(ctx, f.customer.ID, i18n.LocaleEN, 0); err != nil {
		t.Fatalf("begin edit failed: %v", err)
	}

	f.stub.mu.Lock()
	c := f.stub.customers[f.customer.ID]
	c.Version = 7
	f.stub.customers[f.customer.ID] = c
	f.stub.mu.Unlock()

	if _, err := f.svc.UpdateAddressField(ctx, f.customer.ID, i18n.LocaleEN, 0, "city", "Hamburg"); err != nil {
		t.Fatalf("update field failed: %v", err)
	}
	if _, err := f.svc.SaveAddresses(ctx, f.customer.ID, i18n.LocaleEN); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	view, err = f.svc.Get(ctx, f.customer.ID, i18n.LocaleEN)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if view.Mode != EditModeViewing || view.Profile.Version != 7 || view.Profile.DefaultShippingAddressID != addrID {
		t.Fatalf("expected fresh profile after conflict: %+v", view)
	}
}

func TestProfileServiceUpdatePersonalDetails(t *testing.T) {
	f := newProfileFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.UpdatePersonalDetails(ctx, f.customer.ID, i18n.LocaleEN, PersonalDetails{
		FirstName: "Ann1", LastName: "Lee", Email: "ann@example.com", DateOfBirth: time.Now().Format("2006-01-02"),
	})
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) || fieldErrs["first_name"] == "" || fieldErrs["date_of_birth"] == "" {
		t.Fatalf("expected field errors, got %v", err)
	}
	if len(f.stub.updates) != 0 {
		t.Fatalf("invalid details must not reach the backend")
	}

	view, err := f.svc.UpdatePersonalDetails(ctx, f.customer.ID, i18n.LocaleEN, PersonalDetails{
		FirstName: "Anna", LastName: "Lee", Email: "Anna@Example.com", DateOfBirth: "1990-04-01",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if view.Profile.FirstName != "Anna" || view.Profile.Email != "anna@example.com" || view.Profile.DateOfBirth != "1990-04-01" {
		t.Fatalf("unexpected profile: %+v", view.Profile)
	}
	names := commerce.ActionNames(f.stub.updates[0])
	want := []string{commerce.ActionSetFirstName, commerce.ActionChangeEmail, commerce.ActionSetDateOfBirth}
	if len(names) != len(want) {
		t.Fatalf("unexpected actions: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected actions: %v", names)
		}
	}
}

func TestMemoryEditSessionStoreExpires(t *testing.T) {
	store := NewMemoryEditSessionStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()
	if err := store.Save(ctx, "c-1", AddressBookState{Mode: EditModeEditing}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "c-1"); !ok {
		t.Fatalf("expected session")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Load(ctx, "c-1"); ok {
		t.Fatalf("expected session to expire")
	}
}
