package public

import (
	"strconv"
	"strings"

	"github.com/storefront-next/internal/commerce"
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultAuditLogLimit = 20

// PersonalDetailsRequest 个人信息更新请求
type PersonalDetailsRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"`
}

// AddressRequest 地址载荷
type AddressRequest struct {
	StreetName string `json:"street_name"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	State      string `json:"state"`
}

func (r AddressRequest) toAddress() commerce.Address {
	return commerce.Address{
		StreetName: strings.TrimSpace(r.StreetName),
		PostalCode: strings.TrimSpace(r.PostalCode),
		City:       strings.TrimSpace(r.City),
		Country:    strings.ToUpper(strings.TrimSpace(r.Country)),
		State:      strings.TrimSpace(r.State),
	}
}

// AddAddressRequest 新增地址请求，kind 为 shipping 或 billing
type AddAddressRequest struct {
	AddressRequest
	Kind string `json:"kind"`
}

// DefaultAddressRequest 切换默认地址请求
type DefaultAddressRequest struct {
	Kind string `json:"kind"`
}

// BeginEditRequest 开始编辑请求
type BeginEditRequest struct {
	Index *int `json:"index" binding:"required"`
}

// AddressFieldRequest 修改地址字段请求
type AddressFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type profileOperation func(customerID, locale string) (*service.ProfileView, error)

// GetProfile 顾客资料
func (h *Handler) GetProfile(c *gin.Context) {
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.Get(c.Request.Context(), customerID, locale)
	})
}

// UpdateProfile 更新个人信息
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req PersonalDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.UpdatePersonalDetails(c.Request.Context(), customerID, locale, service.PersonalDetails{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			DateOfBirth: req.DateOfBirth,
		})
	})
}

// AddAddress 新增地址并设为默认
func (h *Handler) AddAddress(c *gin.Context) {
	var req AddAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	kind, err := service.ParseAddressKind(req.Kind)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.address_kind_invalid", nil)
		return
	}
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.AddAddress(c.Request.Context(), customerID, locale, req.toAddress(), kind)
	})
}

// RemoveAddress 删除地址
func (h *Handler) RemoveAddress(c *gin.Context) {
	addressID := strings.TrimSpace(c.Param("id"))
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.RemoveAddress(c.Request.Context(), customerID, locale, addressID)
	})
}

// SetDefaultAddress 切换默认收货或账单地址
func (h *Handler) SetDefaultAddress(c *gin.Context) {
	var req DefaultAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	kind, err := service.ParseAddressKind(req.Kind)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.address_kind_invalid", nil)
		return
	}
	addressID := strings.TrimSpace(c.Param("id"))
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.SetDefaultAddress(c.Request.Context(), customerID, locale, addressID, kind)
	})
}

// ValidateAddress 无状态校验单个地址
func (h *Handler) ValidateAddress(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	msg := h.ProfileService.ValidateAddress(i18n.ResolveLocale(c), req.toAddress())
	response.Success(c, gin.H{
		"valid": msg == "",
		"error": msg,
	})
}

// BeginAddressEdit 开始编辑已有地址
func (h *Handler) BeginAddressEdit(c *gin.Context) {
	var req BeginEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.BeginEdit(c.Request.Context(), customerID, locale, *req.Index)
	})
}

// BeginAddressAdd 开始新增地址
func (h *Handler) BeginAddressAdd(c *gin.Context) {
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.BeginAdd(c.Request.Context(), customerID, locale)
	})
}

// UpdateAddressField 修改编辑副本中的地址字段
func (h *Handler) UpdateAddressField(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.address_index_invalid", nil)
		return
	}
	var req AddressFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.UpdateAddressField(c.Request.Context(), customerID, locale, index, req.Field, req.Value)
	})
}

// SaveAddressEdit 提交编辑
func (h *Handler) SaveAddressEdit(c *gin.Context) {
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.SaveAddresses(c.Request.Context(), customerID, locale)
	})
}

// CancelAddressEdit 放弃编辑
func (h *Handler) CancelAddressEdit(c *gin.Context) {
	h.runProfile(c, func(customerID, locale string) (*service.ProfileView, error) {
		return h.ProfileService.CancelEdit(c.Request.Context(), customerID, locale)
	})
}

// GetProfileAuditLogs 资料变更记录
func (h *Handler) GetProfileAuditLogs(c *gin.Context) {
	customerID, ok := handlershared.RequireCustomerID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditLogLimit)))
	_, limit = handlershared.NormalizePagination(1, limit)
	logs, err := h.ProfileAuditService.List(customerID, limit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}
	response.Success(c, logs)
}

func (h *Handler) runProfile(c *gin.Context, op profileOperation) {
	customerID, ok := handlershared.RequireCustomerID(c)
	if !ok {
		return
	}
	view, err := op(customerID, i18n.ResolveLocale(c))
	if err != nil {
		respondProfileError(c, view, err)
		return
	}
	response.Success(c, view)
}
