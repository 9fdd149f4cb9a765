package public

import (
	"strings"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加购请求
type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// CartQuantityRequest 设置数量请求，小于 1 时删除该行
type CartQuantityRequest struct {
	Quantity *float64 `json:"quantity" binding:"required"`
}

// PromoCodeRequest 应用优惠码请求
type PromoCodeRequest struct {
	Code string `json:"code"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, err := h.CartService.Get(c.Request.Context(), owner)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加购
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, err := h.CartService.AddItem(c.Request.Context(), owner, service.AddCartItemInput{
		ProductID: strings.TrimSpace(req.ProductID),
		Quantity:  req.Quantity,
		Locale:    i18n.ResolveLocale(c),
	})
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// UpdateCartItem 设置数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.mutateCartItem(c, func(owner service.CartOwner, productID string) (*service.CartView, error) {
		return h.CartService.SetQuantity(c.Request.Context(), owner, productID, *req.Quantity)
	})
}

// RemoveCartItem 删除行项目
func (h *Handler) RemoveCartItem(c *gin.Context) {
	h.mutateCartItem(c, func(owner service.CartOwner, productID string) (*service.CartView, error) {
		return h.CartService.RemoveItem(c.Request.Context(), owner, productID)
	})
}

// IncrementCartItem 数量加一
func (h *Handler) IncrementCartItem(c *gin.Context) {
	h.mutateCartItem(c, func(owner service.CartOwner, productID string) (*service.CartView, error) {
		return h.CartService.IncrementQuantity(c.Request.Context(), owner, productID)
	})
}

// DecrementCartItem 数量减一
func (h *Handler) DecrementCartItem(c *gin.Context) {
	h.mutateCartItem(c, func(owner service.CartOwner, productID string) (*service.CartView, error) {
		return h.CartService.DecrementQuantity(c.Request.Context(), owner, productID)
	})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, err := h.CartService.Clear(c.Request.Context(), owner)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}

// ApplyPromoCode 应用优惠码，未知优惠码不报错，通过 promo 字段返回结果
func (h *Handler) ApplyPromoCode(c *gin.Context) {
	var req PromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, result, err := h.CartService.ApplyPromoCode(c.Request.Context(), owner, req.Code)
	if err != nil {
		respondCartError(c, err)
		return
	}
	msg := result.Message(i18n.ResolveLocale(c))
	response.SuccessWithMsg(c, msg, gin.H{
		"cart":  view,
		"promo": result,
	})
}

// RemovePromoCode 移除优惠码
func (h *Handler) RemovePromoCode(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, err := h.CartService.RemovePromoCode(c.Request.Context(), owner)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "cart.promo_removed"), view)
}

func (h *Handler) mutateCartItem(c *gin.Context, fn func(owner service.CartOwner, productID string) (*service.CartView, error)) {
	productID := strings.TrimSpace(c.Param("product_id"))
	if productID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	view, err := fn(owner, productID)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, view)
}
