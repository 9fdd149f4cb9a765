package provider

import (
	"github.com/storefront-next/internal/authz"
	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Commerce    commerce.Client

	// Repositories
	CustomerRepo        repository.CustomerRepository
	ProductRepo         repository.ProductRepository
	CategoryRepo        repository.CategoryRepository
	CartRepo            repository.CartRepository
	PromoCodeRepo       repository.PromoCodeRepository
	ProfileAuditLogRepo repository.ProfileAuditLogRepository

	// Services
	AuthzService        *authz.Service
	CaptchaService      *service.CaptchaService
	CatalogService      *service.CatalogService
	CartService         *service.CartService
	CustomerAuthService *service.CustomerAuthService
	ProfileService      *service.ProfileService
	ProfileAuditService *service.ProfileAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化商务后端客户端
	c.initCommerce()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.PromoCodeRepo = repository.NewPromoCodeRepository(db)
	c.ProfileAuditLogRepo = repository.NewProfileAuditLogRepository(db)
}

func (c *Container) initCommerce() {
	if c.Config.Commerce.Mode == constants.CommerceModeRemote {
		client, err := commerce.NewHTTPClient(c.Config.Commerce)
		if err != nil {
			logger.Errorw("provider_init_commerce_client_failed", "error", err)
			panic(err)
		}
		c.Commerce = client
		return
	}
	c.Commerce = commerce.NewLocalClient(c.CustomerRepo, c.ProductRepo, c.CategoryRepo)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	promoCodes, err := service.ParsePromoCodes(c.Config.Cart.PromoCodes)
	if err != nil {
		logger.Errorw("provider_parse_promo_codes_failed", "error", err)
		panic(err)
	}
	if err := models.EnsurePromoCodes(models.DB, promoCodes); err != nil {
		logger.Warnw("provider_ensure_promo_codes_failed", "error", err)
	}
	catalog, err := service.BuildPromoCatalog(c.Config.Cart, c.PromoCodeRepo)
	if err != nil {
		logger.Errorw("provider_build_promo_catalog_failed", "error", err)
		panic(err)
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.CatalogService = service.NewCatalogService(c.Commerce)
	c.CartService = service.NewCartService(c.Config.Cart, c.CartRepo, c.Commerce, catalog, c.QueueClient)
	c.CustomerAuthService = service.NewCustomerAuthService(c.Config, c.Commerce, c.CaptchaService, c.CartService)
	c.ProfileAuditService = service.NewProfileAuditService(c.ProfileAuditLogRepo)
	c.ProfileService = service.NewProfileService(c.Config.Profile, c.Commerce, nil, c.ProfileAuditService, c.QueueClient)
}

// Close 释放队列客户端与缓存连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
