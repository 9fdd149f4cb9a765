package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLocalePriority(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		url    string
		header map[string]string
		want   string
	}{
		{name: "default", url: "/", want: LocaleEN},
		{name: "query wins", url: "/?locale=zh-CN", header: map[string]string{"X-Locale": "en-US"}, want: LocaleZH},
		{name: "x-locale", url: "/", header: map[string]string{"X-Locale": "zh"}, want: LocaleZH},
		{name: "accept-language", url: "/", header: map[string]string{"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8"}, want: LocaleZH},
		{name: "unsupported falls back", url: "/", header: map[string]string{"Accept-Language": "fr-FR"}, want: LocaleEN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", tc.url, nil)
			for k, v := range tc.header {
				c.Request.Header.Set(k, v)
			}
			if got := ResolveLocale(c); got != tc.want {
				t.Fatalf("want %s got %s", tc.want, got)
			}
		})
	}
}

func TestTFallsBackToDefaultThenKey(t *testing.T) {
	if got := T(LocaleZH, "cart.promo_empty"); got != messagesZH["cart.promo_empty"] {
		t.Fatalf("unexpected zh message: %s", got)
	}
	if got := T(LocaleZH, "missing.key"); got != "missing.key" {
		t.Fatalf("missing key should echo key, got %s", got)
	}
}

func TestSprintfFormatsArgs(t *testing.T) {
	got := Sprintf(LocaleEN, "validation.minimum_age", 13)
	if got != "You must be at least 13 years old" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for key := range messagesEN {
		if _, ok := messagesZH[key]; !ok {
			t.Fatalf("zh catalog missing %s", key)
		}
	}
	for key := range messagesZH {
		if _, ok := messagesEN[key]; !ok {
			t.Fatalf("en catalog missing %s", key)
		}
	}
}
