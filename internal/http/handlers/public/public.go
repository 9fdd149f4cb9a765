package public

import (
	"strconv"
	"strings"

	"github.com/storefront-next/internal/commerce"
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"

	"github.com/gin-gonic/gin"
)

// GetConfig 获取前台公共配置
func (h *Handler) GetConfig(c *gin.Context) {
	data := gin.H{
		"app_name":       h.Config.App.Name,
		"languages":      []string{i18n.LocaleEN, i18n.LocaleZH},
		"default_locale": i18n.DefaultLocale(),
		"password_policy": gin.H{
			"min_length":      h.Config.Security.PasswordPolicy.MinLength,
			"require_upper":   h.Config.Security.PasswordPolicy.RequireUpper,
			"require_lower":   h.Config.Security.PasswordPolicy.RequireLower,
			"require_number":  h.Config.Security.PasswordPolicy.RequireNumber,
			"require_special": h.Config.Security.PasswordPolicy.RequireSpecial,
		},
		"minimum_age": h.ProfileService.Validators("").MinimumAge,
		"cart": gin.H{
			"max_line_items":        h.Config.Cart.MaxLineItems,
			"max_quantity_per_item": h.Config.Cart.MaxQuantityPerItem,
		},
	}
	if h.CaptchaService != nil {
		data["captcha"] = h.CaptchaService.PublicSetting()
	}
	response.Success(c, data)
}

// GetProducts 商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	query := productQueryFromRequest(c)
	page, err := h.CatalogService.ListProducts(c.Request.Context(), query)
	if err != nil {
		respondCatalogError(c, err, "error.product_fetch_failed")
		return
	}
	respondProductPage(c, page)
}

// SearchProducts 商品搜索，关键词为空时等同列表
func (h *Handler) SearchProducts(c *gin.Context) {
	query := productQueryFromRequest(c)
	query.Search = strings.TrimSpace(c.Query("q"))
	page, err := h.CatalogService.SearchProducts(c.Request.Context(), query)
	if err != nil {
		respondCatalogError(c, err, "error.product_fetch_failed")
		return
	}
	respondProductPage(c, page)
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.CatalogService.GetProduct(c.Request.Context(), id, i18n.ResolveLocale(c))
	if err != nil {
		respondCatalogError(c, err, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// GetCategories 分类树
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.CatalogService.GetCategories(c.Request.Context(), i18n.ResolveLocale(c))
	if err != nil {
		respondCatalogError(c, err, "error.category_fetch_failed")
		return
	}
	response.Success(c, categories)
}

func productQueryFromRequest(c *gin.Context) commerce.ProductQuery {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)
	return commerce.ProductQuery{
		Locale:     i18n.ResolveLocale(c),
		CategoryID: strings.TrimSpace(c.Query("category_id")),
		Page:       page,
		PageSize:   pageSize,
	}
}

func respondProductPage(c *gin.Context, page *commerce.ProductPage) {
	if page == nil {
		page = &commerce.ProductPage{}
	}
	totalPage := int64(0)
	if page.PageSize > 0 {
		totalPage = (page.Total + int64(page.PageSize) - 1) / int64(page.PageSize)
	}
	items := page.Items
	if items == nil {
		items = []commerce.Product{}
	}
	response.SuccessWithPage(c, items, response.Pagination{
		Page:      page.Page,
		PageSize:  page.PageSize,
		Total:     page.Total,
		TotalPage: totalPage,
	})
}
