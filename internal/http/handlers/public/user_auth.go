package public

import (
	"strings"

	"github.com/storefront-next/internal/constants"
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 顾客注册请求
type RegisterRequest struct {
	Email          string                              `json:"email"`
	Password       string                              `json:"password"`
	FirstName      string                              `json:"first_name"`
	LastName       string                              `json:"last_name"`
	DateOfBirth    string                              `json:"date_of_birth"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginRequest 顾客登录请求
type LoginRequest struct {
	Email          string                              `json:"email"`
	Password       string                              `json:"password"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// ValidateFieldsRequest 表单即时校验请求
type ValidateFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// Register 顾客注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.CustomerAuthService.Register(c.Request.Context(), service.RegisterInput{
		RegistrationInput: service.RegistrationInput{
			Email:       req.Email,
			Password:    req.Password,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			DateOfBirth: req.DateOfBirth,
		},
		Locale:         i18n.ResolveLocale(c),
		Captcha:        req.CaptchaPayload.ToServicePayload(),
		GuestCartToken: guestCartToken(c),
	})
	if err != nil {
		respondRegisterError(c, err)
		return
	}
	response.Success(c, result)
}

// Login 顾客登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.CustomerAuthService.Login(c.Request.Context(), service.LoginInput{
		Email:          req.Email,
		Password:       req.Password,
		Locale:         i18n.ResolveLocale(c),
		Captcha:        req.CaptchaPayload.ToServicePayload(),
		GuestCartToken: guestCartToken(c),
	})
	if err != nil {
		respondLoginError(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 吊销当前顾客已签发的令牌
func (h *Handler) Logout(c *gin.Context) {
	customerID, ok := handlershared.RequireCustomerID(c)
	if !ok {
		return
	}
	if err := h.CustomerAuthService.Logout(c.Request.Context(), customerID); err != nil {
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	response.Success(c, nil)
}

// ValidateFields 按字段名即时校验表单，country 用于邮编格式
func (h *Handler) ValidateFields(c *gin.Context) {
	var req ValidateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	errs := h.CustomerAuthService.Validators(i18n.ResolveLocale(c)).ValidateForm(req.Fields)
	response.Success(c, gin.H{
		"valid":  len(errs) == 0,
		"fields": map[string]string(errs),
	})
}

func guestCartToken(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(constants.HeaderCartToken))
}
