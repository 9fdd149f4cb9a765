package public

import (
	"strings"

	"github.com/storefront-next/internal/constants"
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// resolveCartOwner 已登录顾客使用顾客购物车，访客按 X-Cart-Token 定位，缺失时分配新 token
func resolveCartOwner(c *gin.Context) (service.CartOwner, bool) {
	if customerID := handlershared.CustomerID(c); customerID != "" {
		return service.CustomerCartOwner(customerID), true
	}
	token := strings.TrimSpace(c.GetHeader(constants.HeaderCartToken))
	if token == "" {
		owner := service.NewGuestCartOwner()
		c.Header(constants.HeaderCartToken, owner.GuestToken)
		return owner, true
	}
	owner, err := service.GuestCartOwner(token)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.cart_token_invalid", nil)
		return service.CartOwner{}, false
	}
	c.Header(constants.HeaderCartToken, owner.GuestToken)
	return owner, true
}
