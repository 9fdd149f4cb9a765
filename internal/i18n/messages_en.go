package i18n

var messagesEN = map[string]string{
	// 通用错误
	"error.bad_request":            "Invalid request",
	"error.unauthorized":           "Please sign in first",
	"error.forbidden":              "Access denied",
	"error.not_found":              "Resource not found",
	"error.internal_error":         "Something went wrong, please try again later",
	"error.validation_failed":      "Please correct the highlighted fields",
	"error.jwt_secret_missing":     "Token signing is not configured",
	"error.token_invalid":          "Session expired, please sign in again",
	"error.auth_header_missing":    "Authorization header is missing",
	"error.auth_header_invalid":    "Authorization header is malformed",
	"error.captcha_required":       "Please complete the captcha",
	"error.captcha_invalid":        "Captcha is incorrect",
	"error.captcha_unavailable":    "Captcha is not available",
	"error.commerce_unavailable":   "The store backend is temporarily unavailable",
	"error.rate_limited":           "Too many attempts, please retry in %d seconds",
	"error.rate_limit_unavailable": "Rate limiting is temporarily unavailable",
	"error.audit_fetch_failed":     "Failed to load change history",

	// 密码策略
	"error.password_min_length":      "Password must be at least %d characters",
	"error.password_require_upper":   "Password must contain an uppercase letter",
	"error.password_require_lower":   "Password must contain a lowercase letter",
	"error.password_require_number":  "Password must contain a number",
	"error.password_require_special": "Password must contain a special character",

	// 顾客
	"error.customer_exists":          "An account with this email already exists",
	"error.login_failed":             "Incorrect email or password",
	"error.customer_not_found":       "Customer not found",
	"error.customer_fetch_failed":    "Failed to load customer",
	"error.customer_update_failed":   "Failed to update customer",
	"error.customer_register_failed": "Failed to create account",
	"error.version_conflict":         "Your profile was changed elsewhere, please reload",

	// 地址
	"error.address_not_found":       "Address not found",
	"error.address_index_invalid":   "Address index is out of range",
	"error.address_field_invalid":   "Unknown address field",
	"error.address_kind_invalid":    "Address type must be shipping or billing",
	"error.address_add_not_allowed": "A new address can only be added for the missing default type",
	"error.edit_session_missing":    "No address edit is in progress",
	"error.edit_state_invalid":      "This action is not allowed in the current edit state",

	// 目录
	"error.product_not_found":     "Product not found",
	"error.product_fetch_failed":  "Failed to load products",
	"error.category_fetch_failed": "Failed to load categories",

	// 购物车
	"error.cart_fetch_failed":        "Failed to load cart",
	"error.cart_update_failed":       "Failed to update cart",
	"error.cart_limit_exceeded":      "Your cart is full",
	"error.cart_quantity_exceeded":   "Quantity exceeds the allowed maximum",
	"error.cart_token_invalid":       "Cart token is invalid",
	"cart.promo_applied":             "Promo code %s applied: %s%% off",
	"cart.promo_rejected":            "Promo code %s is not valid",
	"cart.promo_empty":               "Please enter a promo code",
	"cart.promo_removed":             "Promo code removed",
	"validation.email_required":      "Email is required",
	"validation.email_invalid":       "Please enter a valid email address",
	"validation.password_required":   "Password is required",
	"validation.name_required":       "Name is required",
	"validation.name_letters_only":   "Name may contain letters only",
	"validation.city_required":       "City is required",
	"validation.city_letters_spaces": "City may contain letters and spaces only",
	"validation.street_required":     "Street is required",
	"validation.country_required":    "Country is required",
	"validation.country_first":       "Please select a country first",
	"validation.postal_required":     "Postal code is required",
	"validation.postal_format":       "Postal code for %s must look like %s",
	"validation.dob_required":        "Date of birth is required",
	"validation.dob_invalid":         "Date of birth must use the format YYYY-MM-DD",
	"validation.dob_future":          "Date of birth is in the future: not born yet",
	"validation.minimum_age":         "You must be at least %d years old",
}
