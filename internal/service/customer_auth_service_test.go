package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/repository"
)

func newTestAuthService(t *testing.T) (*CustomerAuthService, *stubCommerce, *CartService) {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Name = "storefront-test"
	cfg.JWT = config.JWTConfig{SecretKey: "test-secret", ExpireHours: 2}
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireNumber: true}
	cfg.Cart = config.CartConfig{MergeGuestCartLogin: true, PromoCodes: map[string]string{"PROMO": "0.10"}}

	db := openServiceTestDB(t)
	stub := newStubCommerce()
	stub.addProduct("1", "Mug", "10.00", "")
	catalog, err := BuildPromoCatalog(cfg.Cart, repository.NewPromoCodeRepository(db))
	if err != nil {
		t.Fatalf("build catalog failed: %v", err)
	}
	carts := NewCartService(cfg.Cart, repository.NewCartRepository(db), stub, catalog, nil)
	captcha := NewCaptchaService(config.CaptchaConfig{})
	return NewCustomerAuthService(cfg, stub, captcha, carts), stub, carts
}

func TestCustomerAuthRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		RegistrationInput: RegistrationInput{Email: "ann@example.com", Password: "weak", FirstName: "Ann", LastName: "Lee"},
		Locale:            i18n.LocaleEN,
	})
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) || fieldErrs["password"] == "" {
		t.Fatalf("expected password policy error, got %v", err)
	}

	input := RegisterInput{
		RegistrationInput: RegistrationInput{Email: "Ann@Example.com", Password: "Secret123", FirstName: "Ann", LastName: "Lee"},
		Locale:            i18n.LocaleEN,
	}
	result, err := svc.Register(ctx, input)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.Customer.Email != "ann@example.com" || result.Token == "" {
		t.Fatalf("unexpected register result: %+v", result)
	}
	if _, err := svc.Register(ctx, input); !errors.Is(err, ErrCustomerExists) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	claims, err := svc.ParseCustomerJWT(result.Token)
	if err != nil || claims.CustomerID != result.Customer.ID || claims.Email != "ann@example.com" {
		t.Fatalf("unexpected claims %+v err=%v", claims, err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "", Password: ""}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "ANN@example.com", Password: "Secret123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestCustomerAuthRejectsForeignTokens(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	token, _, err := svc.GenerateCustomerJWT(&commerce.Customer{ID: "c-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	other, _, _ := newTestAuthService(t)
	other.cfg.JWT.SecretKey = "another-secret"
	if _, err := other.ParseCustomerJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	if _, err := svc.ParseCustomerJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token should be rejected, got %v", err)
	}
}

func TestCustomerAuthLogoutRevokesTokens(t *testing.T) {
	useTestRedis(t)
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Second)

	svc.now = func() time.Time { return base }
	token, _, err := svc.GenerateCustomerJWT(&commerce.Customer{ID: "c-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	svc.now = func() time.Time { return base.Add(10 * time.Second) }
	if err := svc.Logout(ctx, "c-1"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked token accepted: %v", err)
	}

	svc.now = func() time.Time { return base.Add(20 * time.Second) }
	fresh, _, err := svc.GenerateCustomerJWT(&commerce.Customer{ID: "c-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, fresh); err != nil {
		t.Fatalf("token issued after logout rejected: %v", err)
	}
}

func TestCustomerAuthLoginMergesGuestCart(t *testing.T) {
	svc, stub, carts := newTestAuthService(t)
	ctx := context.Background()
	customer, err := stub.RegisterCustomer(ctx, commerce.CustomerDraft{Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	guest := NewGuestCartOwner()
	if _, err := carts.AddItem(ctx, guest, AddCartItemInput{ProductID: "1", Quantity: 2}); err != nil {
		t.Fatalf("guest add failed: %v", err)
	}

	result, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "Secret123", GuestCartToken: guest.GuestToken})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Customer.ID != customer.ID || result.Cart == nil || result.Cart.Totals.TotalItemCount != 2 {
		t.Fatalf("guest cart should be merged into login result: %+v", result.Cart)
	}
	guestView, err := carts.Get(ctx, guest)
	if err != nil {
		t.Fatalf("get guest cart failed: %v", err)
	}
	if len(guestView.Items) != 0 {
		t.Fatalf("guest cart should be emptied after merge: %+v", guestView.Items)
	}
}
