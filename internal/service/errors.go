package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidToken     = errors.New("invalid token")

	ErrCaptchaRequired    = errors.New("captcha required")
	ErrCaptchaInvalid     = errors.New("captcha invalid")
	ErrCaptchaUnavailable = errors.New("captcha unavailable")

	ErrCustomerNotFound     = errors.New("customer not found")
	ErrCustomerExists       = errors.New("customer already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrCustomerFetchFailed  = errors.New("failed to fetch customer")
	ErrCustomerUpdateFailed = errors.New("failed to update customer")
	ErrRegisterFailed       = errors.New("failed to register customer")
	ErrVersionConflict      = errors.New("customer version conflict")

	ErrAddressNotFound      = errors.New("address not found")
	ErrAddressIndexInvalid  = errors.New("address index out of range")
	ErrAddressFieldInvalid  = errors.New("unknown address field")
	ErrAddressKindInvalid   = errors.New("address kind must be shipping or billing")
	ErrAddressAddNotAllowed = errors.New("adding a new address is not allowed")
	ErrEditStateInvalid     = errors.New("action not allowed in current edit state")
	ErrEditSessionMissing   = errors.New("no address edit in progress")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductFetchFailed  = errors.New("failed to fetch products")
	ErrCategoryFetchFailed = errors.New("failed to fetch categories")
	ErrCommerceUnavailable = errors.New("commerce backend unavailable")

	ErrCartFetchFailed      = errors.New("failed to fetch cart")
	ErrCartUpdateFailed     = errors.New("failed to update cart")
	ErrCartLimitExceeded    = errors.New("cart line item limit exceeded")
	ErrCartQuantityExceeded = errors.New("cart quantity limit exceeded")
	ErrCartTokenInvalid     = errors.New("invalid cart token")
)

// FieldErrors 字段校验错误，key 为字段名，value 为本地化提示
type FieldErrors map[string]string

// Error 实现 error 接口
func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is 使 errors.Is(err, ErrValidationFailed) 成立
func (e FieldErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add 记录非空提示
func (e FieldErrors) Add(field, message string) {
	if message != "" {
		e[field] = message
	}
}

// Err 无错误时返回 nil
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
