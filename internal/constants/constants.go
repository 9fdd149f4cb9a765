package constants

// 队列与任务常量
const (
	QueueDefault     = "default"
	QueueCritical    = "critical"
	TaskCartExpire   = "cart:expire"
	TaskProfileAudit = "profile:audit"
)

// 验证码场景常量
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 授权角色常量
const (
	RoleGuest    = "guest"
	RoleCustomer = "customer"
)

// 购物车归属前缀，归属 key 形如 customer:<id> 或 guest:<token>
const (
	CartOwnerCustomerPrefix = "customer:"
	CartOwnerGuestPrefix    = "guest:"
)

// 请求头与 gin 上下文 key
const (
	HeaderCartToken     = "X-Cart-Token"
	HeaderRequestID     = "X-Request-ID"
	CtxKeyCustomerID    = "customer_id"
	CtxKeyCustomerEmail = "customer_email"
	CtxKeyRequestID     = "request_id"
)

// 商务后端模式
const (
	CommerceModeLocal  = "local"
	CommerceModeRemote = "remote"
)
