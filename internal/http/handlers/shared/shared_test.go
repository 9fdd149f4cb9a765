package shared

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

func TestRespondFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/", nil)

	if RespondFieldErrors(c, errors.New("plain"), nil) {
		t.Fatalf("plain errors must not be treated as field errors")
	}
	err := error(service.FieldErrors{"email": "Email is required"})
	if !RespondFieldErrors(c, err, nil) {
		t.Fatalf("expected field errors response")
	}
	var resp struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			Fields map[string]string `json:"fields"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.StatusCode != response.CodeBadRequest || resp.Data.Fields["email"] != "Email is required" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireCustomerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	if _, ok := RequireCustomerID(c); ok {
		t.Fatalf("missing customer should fail")
	}
	c.Set(constants.CtxKeyCustomerID, "c-1")
	if id, ok := RequireCustomerID(c); !ok || id != "c-1" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestNormalizePagination(t *testing.T) {
	if p, s := NormalizePagination(0, 0); p != 1 || s != 20 {
		t.Fatalf("unexpected defaults %d %d", p, s)
	}
	if _, s := NormalizePagination(2, 500); s != 100 {
		t.Fatalf("page size should be capped, got %d", s)
	}
}
