package shared

import (
	"strings"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CustomerID 读取已登录顾客 ID，不存在时返回空串。
func CustomerID(c *gin.Context) string {
	value, ok := c.Get(constants.CtxKeyCustomerID)
	if !ok {
		return ""
	}
	id, _ := value.(string)
	return strings.TrimSpace(id)
}

// RequireCustomerID 读取顾客 ID 并在缺失时返回 401。
func RequireCustomerID(c *gin.Context) (string, bool) {
	id := CustomerID(c)
	if id == "" {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", false
	}
	return id, true
}
