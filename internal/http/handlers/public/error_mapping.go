package public

import (
	"errors"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	if handlershared.RespondFieldErrors(c, err, nil) {
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var commerceErrorRules = []mappedHandlerError{
	{target: service.ErrCommerceUnavailable, code: response.CodeServiceUnavailable, key: "error.commerce_unavailable"},
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaUnavailable, code: response.CodeServiceUnavailable, key: "error.captcha_unavailable"},
}

var registerErrorRules = []mappedHandlerError{
	{target: service.ErrCustomerExists, code: response.CodeConflict, key: "error.customer_exists"},
}

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, key: "error.login_failed"},
}

var catalogErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrCategoryFetchFailed, code: response.CodeInternal, key: "error.category_fetch_failed"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCartTokenInvalid, code: response.CodeBadRequest, key: "error.cart_token_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrCartLimitExceeded, code: response.CodeBadRequest, key: "error.cart_limit_exceeded"},
	{target: service.ErrCartQuantityExceeded, code: response.CodeBadRequest, key: "error.cart_quantity_exceeded"},
	{target: service.ErrCartFetchFailed, code: response.CodeInternal, key: "error.cart_fetch_failed"},
}

var profileErrorRules = []mappedHandlerError{
	{target: service.ErrCustomerNotFound, code: response.CodeNotFound, key: "error.customer_not_found"},
	{target: service.ErrVersionConflict, code: response.CodeConflict, key: "error.version_conflict"},
	{target: service.ErrCustomerExists, code: response.CodeConflict, key: "error.customer_exists"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, key: "error.address_not_found"},
	{target: service.ErrAddressIndexInvalid, code: response.CodeBadRequest, key: "error.address_index_invalid"},
	{target: service.ErrAddressFieldInvalid, code: response.CodeBadRequest, key: "error.address_field_invalid"},
	{target: service.ErrAddressKindInvalid, code: response.CodeBadRequest, key: "error.address_kind_invalid"},
	{target: service.ErrAddressAddNotAllowed, code: response.CodeConflict, key: "error.address_add_not_allowed"},
	{target: service.ErrEditSessionMissing, code: response.CodeBadRequest, key: "error.edit_session_missing"},
	{target: service.ErrEditStateInvalid, code: response.CodeConflict, key: "error.edit_state_invalid"},
	{target: service.ErrCustomerFetchFailed, code: response.CodeInternal, key: "error.customer_fetch_failed"},
}

func respondRegisterError(c *gin.Context, err error) {
	rules := concatMappedHandlerErrors(captchaErrorRules, registerErrorRules, commerceErrorRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, "error.customer_register_failed")
}

func respondLoginError(c *gin.Context, err error) {
	rules := concatMappedHandlerErrors(captchaErrorRules, loginErrorRules, commerceErrorRules)
	respondWithMappedError(c, err, rules, response.CodeInternal, "error.login_failed")
}

func respondCatalogError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(catalogErrorRules, commerceErrorRules), response.CodeInternal, fallbackKey)
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartErrorRules, commerceErrorRules), response.CodeInternal, "error.cart_update_failed")
}

// respondProfileError 资料类错误附带当前视图，便于前端展示回滚后的状态
func respondProfileError(c *gin.Context, view *service.ProfileView, err error) {
	data := gin.H{}
	if view != nil {
		data["profile"] = view
	}
	if handlershared.RespondFieldErrors(c, err, data) {
		return
	}
	code, key := response.CodeInternal, "error.customer_update_failed"
	for _, rule := range concatMappedHandlerErrors(profileErrorRules, commerceErrorRules) {
		if errors.Is(err, rule.target) {
			code, key = rule.code, rule.key
			err = nil
			break
		}
	}
	if err != nil {
		handlershared.RequestLog(c).Errorw("profile_operation_failed", "error", err)
	}
	msg := i18n.T(i18n.ResolveLocale(c), key)
	if view != nil && view.Error != "" {
		msg = view.Error
	}
	response.ErrorWithData(c, code, msg, data)
}
