package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomerJWTClaims 顾客 JWT 声明
type CustomerJWTClaims struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// AuthResult 登录或注册结果
type AuthResult struct {
	Customer  commerce.Customer `json:"customer"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Cart      *CartView         `json:"cart,omitempty"`
}

// RegisterInput 注册请求
type RegisterInput struct {
	RegistrationInput
	Locale         string
	Captcha        CaptchaVerifyPayload
	GuestCartToken string
}

// LoginInput 登录请求
type LoginInput struct {
	Email          string
	Password       string
	Locale         string
	Captcha        CaptchaVerifyPayload
	GuestCartToken string
}

// CustomerAuthService 顾客认证服务
type CustomerAuthService struct {
	cfg        *config.Config
	commerce   commerce.Client
	captcha    *CaptchaService
	carts      *CartService
	validators FieldValidators
	now        func() time.Time
}

// NewCustomerAuthService 创建顾客认证服务
func NewCustomerAuthService(cfg *config.Config, client commerce.Client, captcha *CaptchaService, carts *CartService) *CustomerAuthService {
	validators := NewFieldValidators(cfg.App.DefaultLocale)
	validators.PasswordPolicy = cfg.Security.PasswordPolicy
	if cfg.Profile.MinimumAge > 0 {
		validators.MinimumAge = cfg.Profile.MinimumAge
	}
	return &CustomerAuthService{
		cfg:        cfg,
		commerce:   client,
		captcha:    captcha,
		carts:      carts,
		validators: validators,
		now:        time.Now,
	}
}

// Validators 返回带密码策略的字段校验器
func (s *CustomerAuthService) Validators(locale string) FieldValidators {
	return s.validators.WithLocale(locale)
}

// Register 校验表单后在商务后端创建顾客并签发令牌
func (s *CustomerAuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	v := s.validators.WithLocale(input.Locale)
	if err := v.ValidateRegistration(input.RegistrationInput).Err(); err != nil {
		return nil, err
	}
	if err := s.captcha.Verify(constants.CaptchaSceneRegister, input.Captcha); err != nil {
		return nil, err
	}

	customer, err := s.commerce.RegisterCustomer(ctx, commerce.CustomerDraft{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Password:    input.Password,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		DateOfBirth: strings.TrimSpace(input.DateOfBirth),
	})
	if err != nil {
		switch {
		case errors.Is(err, commerce.ErrEmailTaken):
			return nil, ErrCustomerExists
		case errors.Is(err, commerce.ErrUnavailable):
			return nil, ErrCommerceUnavailable
		default:
			logger.Ctx(ctx).Errorw("customer_register_failed", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrRegisterFailed, err)
		}
	}
	return s.issue(ctx, customer, input.GuestCartToken)
}

// Login 校验凭据并签发令牌
func (s *CustomerAuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	v := s.validators.WithLocale(input.Locale)
	errs := FieldErrors{}
	errs.Add("email", v.ValidateEmail(input.Email))
	errs.Add("password", v.ValidatePasswordPresence(input.Password))
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := s.captcha.Verify(constants.CaptchaSceneLogin, input.Captcha); err != nil {
		return nil, err
	}

	customer, err := s.commerce.LoginCustomer(ctx, strings.ToLower(strings.TrimSpace(input.Email)), input.Password)
	if err != nil {
		switch {
		case errors.Is(err, commerce.ErrInvalidCredentials), errors.Is(err, commerce.ErrCustomerNotFound):
			return nil, ErrInvalidCredentials
		case errors.Is(err, commerce.ErrUnavailable):
			return nil, ErrCommerceUnavailable
		default:
			return nil, fmt.Errorf("%w: %v", ErrCustomerFetchFailed, err)
		}
	}
	logger.Ctx(ctx).Infow("customer_logged_in", "customer_id", customer.ID)
	return s.issue(ctx, customer, input.GuestCartToken)
}

// Logout 吊销该顾客此前签发的全部令牌
func (s *CustomerAuthService) Logout(ctx context.Context, customerID string) error {
	if err := cache.RevokeCustomerTokens(ctx, customerID, s.now(), s.tokenTTL()); err != nil {
		return err
	}
	logger.Ctx(ctx).Infow("customer_logged_out", "customer_id", customerID)
	return nil
}

// GenerateCustomerJWT 生成顾客 JWT
func (s *CustomerAuthService) GenerateCustomerJWT(customer *commerce.Customer) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL())
	claims := CustomerJWTClaims{
		CustomerID: customer.ID,
		Email:      customer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   customer.ID,
			Issuer:    s.cfg.App.Name,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseCustomerJWT 解析顾客 JWT
func (s *CustomerAuthService) ParseCustomerJWT(tokenString string) (*CustomerJWTClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	claims := &CustomerJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || strings.TrimSpace(claims.CustomerID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate 解析令牌并检查是否已被吊销
func (s *CustomerAuthService) Authenticate(ctx context.Context, tokenString string) (*CustomerJWTClaims, error) {
	claims, err := s.ParseCustomerJWT(tokenString)
	if err != nil {
		return nil, err
	}
	state, ok, err := cache.GetCustomerAuthState(ctx, claims.CustomerID)
	if err != nil {
		logger.Ctx(ctx).Warnw("customer_auth_state_read_failed", "customer_id", claims.CustomerID, "error", err)
		return claims, nil
	}
	if ok && claims.IssuedAt != nil && state.IsTokenRevoked(claims.IssuedAt.Time) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *CustomerAuthService) issue(ctx context.Context, customer *commerce.Customer, guestCartToken string) (*AuthResult, error) {
	token, expiresAt, err := s.GenerateCustomerJWT(customer)
	if err != nil {
		return nil, err
	}
	result := &AuthResult{Customer: customer.Clone(), Token: token, ExpiresAt: expiresAt}
	if s.carts == nil {
		return result, nil
	}
	owner := CustomerCartOwner(customer.ID)
	if s.cfg.Cart.MergeGuestCartLogin && strings.TrimSpace(guestCartToken) != "" {
		guest, err := GuestCartOwner(guestCartToken)
		if err == nil {
			if err := s.carts.MergeGuestCart(ctx, guest, customer.ID); err != nil {
				logger.Ctx(ctx).Warnw("guest_cart_merge_failed", "customer_id", customer.ID, "error", err)
			}
		}
	}
	if view, err := s.carts.Get(ctx, owner); err == nil {
		result.Cart = view
	}
	return result, nil
}

func (s *CustomerAuthService) tokenTTL() time.Duration {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
