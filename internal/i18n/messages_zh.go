package i18n

var messagesZH = map[string]string{
	// 通用错误
	"error.bad_request":            "请求参数错误",
	"error.unauthorized":           "请先登录",
	"error.forbidden":              "无权访问",
	"error.not_found":              "资源不存在",
	"error.internal_error":         "服务异常，请稍后重试",
	"error.validation_failed":      "请修正标记的字段",
	"error.jwt_secret_missing":     "令牌签名未配置",
	"error.token_invalid":          "登录已失效，请重新登录",
	"error.auth_header_missing":    "缺少认证头",
	"error.auth_header_invalid":    "认证头格式错误",
	"error.captcha_required":       "请完成验证码",
	"error.captcha_invalid":        "验证码错误",
	"error.captcha_unavailable":    "验证码不可用",
	"error.commerce_unavailable":   "商城后端暂时不可用",
	"error.rate_limited":           "尝试次数过多，请 %d 秒后重试",
	"error.rate_limit_unavailable": "限流服务暂时不可用",
	"error.audit_fetch_failed":     "加载变更记录失败",

	// 密码策略
	"error.password_min_length":      "密码长度至少 %d 位",
	"error.password_require_upper":   "密码需包含大写字母",
	"error.password_require_lower":   "密码需包含小写字母",
	"error.password_require_number":  "密码需包含数字",
	"error.password_require_special": "密码需包含特殊字符",

	// 顾客
	"error.customer_exists":          "该邮箱已注册",
	"error.login_failed":             "邮箱或密码错误",
	"error.customer_not_found":       "顾客不存在",
	"error.customer_fetch_failed":    "获取顾客信息失败",
	"error.customer_update_failed":   "更新顾客信息失败",
	"error.customer_register_failed": "注册失败",
	"error.version_conflict":         "资料已在其他地方修改，请刷新",

	// 地址
	"error.address_not_found":       "地址不存在",
	"error.address_index_invalid":   "地址序号超出范围",
	"error.address_field_invalid":   "未知的地址字段",
	"error.address_kind_invalid":    "地址类型必须为 shipping 或 billing",
	"error.address_add_not_allowed": "仅可为缺失的默认地址类型新增地址",
	"error.edit_session_missing":    "当前没有进行中的地址编辑",
	"error.edit_state_invalid":      "当前编辑状态不允许该操作",

	// 目录
	"error.product_not_found":     "商品不存在",
	"error.product_fetch_failed":  "获取商品失败",
	"error.category_fetch_failed": "获取分类失败",

	// 购物车
	"error.cart_fetch_failed":        "获取购物车失败",
	"error.cart_update_failed":       "更新购物车失败",
	"error.cart_limit_exceeded":      "购物车已满",
	"error.cart_quantity_exceeded":   "数量超过上限",
	"error.cart_token_invalid":       "购物车令牌无效",
	"cart.promo_applied":             "优惠码 %s 已生效：减免 %s%%",
	"cart.promo_rejected":            "优惠码 %s 无效",
	"cart.promo_empty":               "请输入优惠码",
	"cart.promo_removed":             "优惠码已移除",
	"validation.email_required":      "请填写邮箱",
	"validation.email_invalid":       "请输入有效的邮箱地址",
	"validation.password_required":   "请填写密码",
	"validation.name_required":       "请填写姓名",
	"validation.name_letters_only":   "姓名只能包含字母",
	"validation.city_required":       "请填写城市",
	"validation.city_letters_spaces": "城市只能包含字母和空格",
	"validation.street_required":     "请填写街道",
	"validation.country_required":    "请选择国家",
	"validation.country_first":       "请先选择国家",
	"validation.postal_required":     "请填写邮编",
	"validation.postal_format":       "%s 的邮编格式应类似 %s",
	"validation.dob_required":        "请填写出生日期",
	"validation.dob_invalid":         "出生日期格式应为 YYYY-MM-DD",
	"validation.dob_future":          "出生日期晚于今天：尚未出生",
	"validation.minimum_age":         "年龄需至少 %d 岁",
}
