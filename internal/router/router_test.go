package router

import (
	"testing"

	"github.com/gin-gonic/gin"
)

func TestDeriveRouteModule(t *testing.T) {
	cases := map[string]string{
		"":                        "system",
		"/products/:id":           "products",
		"/cart/items/:product_id": "cart",
		"/me":                     "me",
		"/me/address-edit/save":   "profile",
		"/auth/login":             "auth",
	}
	for object, want := range cases {
		if got := deriveRouteModule(object); got != want {
			t.Fatalf("module for %q want %s got %s", object, want, got)
		}
	}
}

func TestBuildRouteCatalogMarksRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newMiddlewareAuthz(t)
	noop := func(c *gin.Context) {}

	r := gin.New()
	api := r.Group(apiV1Prefix)
	api.GET("/products/:id", noop)
	api.GET("/me", noop)
	api.POST("/admin/reindex", noop)
	r.GET("/health", noop)

	items := buildRouteCatalog(r, svc)
	if len(items) != 3 {
		t.Fatalf("expected 3 api routes, got %+v", items)
	}
	byObject := make(map[string]routeCatalogItem, len(items))
	for _, item := range items {
		byObject[item.Object] = item
	}
	if roles := byObject["/products/:id"].Roles; len(roles) != 2 {
		t.Fatalf("catalog route should be open to both roles, got %v", roles)
	}
	if roles := byObject["/me"].Roles; len(roles) != 1 || roles[0] != "customer" {
		t.Fatalf("profile route should be customer only, got %v", roles)
	}
	if roles := byObject["/admin/reindex"].Roles; len(roles) != 0 {
		t.Fatalf("unknown route should have no roles, got %v", roles)
	}
}
