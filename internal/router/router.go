package router

import (
	"sort"
	"strings"

	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	publichandlers "github.com/storefront-next/internal/http/handlers/public"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"

	"github.com/gin-gonic/gin"
)

const apiV1Prefix = "/api/v1"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := publichandlers.New(c)
	redisClient := cache.Client()
	loginRule := LoginRateLimitRule("rate:login", cfg.Security.LoginRateLimit)
	loginRule.MessageKey = "error.rate_limited"
	registerRule := LoginRateLimitRule("rate:register", cfg.Security.LoginRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组：所有接口先解析可选的顾客令牌，再按访客/顾客角色鉴权
	apiV1 := r.Group(apiV1Prefix)
	apiV1.Use(CustomerAuthMiddleware(c.CustomerAuthService, false))
	apiV1.Use(StorefrontRBACMiddleware(c.AuthzService))
	{
		apiV1.GET("/config", h.GetConfig)
		apiV1.GET("/captcha/image", h.GetImageCaptcha)
		apiV1.POST("/validate/fields", h.ValidateFields)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, registerRule, KeyByIP), h.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), h.Login)
			auth.POST("/logout", h.Logout)
		}

		apiV1.GET("/products", h.GetProducts)
		apiV1.GET("/products/search", h.SearchProducts)
		apiV1.GET("/products/:id", h.GetProduct)
		apiV1.GET("/categories", h.GetCategories)

		cart := apiV1.Group("/cart")
		{
			cart.GET("", h.GetCart)
			cart.DELETE("", h.ClearCart)
			cart.POST("/items", h.AddCartItem)
			cart.PUT("/items/:product_id", h.UpdateCartItem)
			cart.DELETE("/items/:product_id", h.RemoveCartItem)
			cart.POST("/items/:product_id/increment", h.IncrementCartItem)
			cart.POST("/items/:product_id/decrement", h.DecrementCartItem)
			cart.POST("/promo", h.ApplyPromoCode)
			cart.DELETE("/promo", h.RemovePromoCode)
		}

		me := apiV1.Group("/me")
		{
			me.GET("", h.GetProfile)
			me.PUT("", h.UpdateProfile)
			me.GET("/audit-logs", h.GetProfileAuditLogs)
			me.POST("/addresses", h.AddAddress)
			me.POST("/addresses/validate", h.ValidateAddress)
			me.DELETE("/addresses/:id", h.RemoveAddress)
			me.POST("/addresses/:id/default", h.SetDefaultAddress)
			me.POST("/address-edit/begin", h.BeginAddressEdit)
			me.POST("/address-edit/add", h.BeginAddressAdd)
			me.PATCH("/address-edit/addresses/:index", h.UpdateAddressField)
			me.POST("/address-edit/save", h.SaveAddressEdit)
			me.POST("/address-edit/cancel", h.CancelAddressEdit)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, i18n.T(i18n.ResolveLocale(c), "error.not_found"))
	})

	warnUncoveredRoutes(r, c.AuthzService)
	return r
}

// routeCatalogItem 已注册接口及其可访问角色
type routeCatalogItem struct {
	Module string   `json:"module"`
	Method string   `json:"method"`
	Object string   `json:"object"`
	Roles  []string `json:"roles"`
}

// buildRouteCatalog 列出 /api/v1 下的接口，并标注哪些内置角色可访问
func buildRouteCatalog(engine *gin.Engine, authzService *authz.Service) []routeCatalogItem {
	if engine == nil {
		return []routeCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]routeCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, apiV1Prefix+"/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}

		roles := make([]string, 0, 2)
		if authzService != nil {
			for _, role := range []string{constants.RoleGuest, constants.RoleCustomer} {
				if allowed, err := authzService.EnforceRole(role, object, method); err == nil && allowed {
					roles = append(roles, role)
				}
			}
		}
		items = append(items, routeCatalogItem{
			Module: deriveRouteModule(object),
			Method: method,
			Object: object,
			Roles:  roles,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveRouteModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if segments[0] == "me" && len(segments) > 1 {
		return "profile"
	}
	return segments[0]
}

// warnUncoveredRoutes 启动时提示没有任何角色可访问的接口
func warnUncoveredRoutes(engine *gin.Engine, authzService *authz.Service) {
	if authzService == nil {
		return
	}
	for _, item := range buildRouteCatalog(engine, authzService) {
		if len(item.Roles) == 0 {
			logger.Warnw("storefront_route_without_policy", "method", item.Method, "object", item.Object)
		}
	}
}
