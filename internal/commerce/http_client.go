package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

var ErrConfigInvalid = errors.New("commerce config invalid")

const (
	defaultHTTPTimeout = 5 * time.Second
	tokenRefreshLeeway = 30 * time.Second
	categoryFetchLimit = 500
	defaultRemoteLimit = 20
	remoteMaxPageLimit = 500
	fallbackWireLocale = "en-US"
	maxErrorSnippet    = 200
)

// HTTPClient 远程商务后端客户端，所有请求经过熔断器，不做重试
type HTTPClient struct {
	cfg     config.CommerceConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*wireResponse]

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

type wireResponse struct {
	status int
	body   []byte
}

// NewHTTPClient 创建远程客户端
func NewHTTPClient(cfg config.CommerceConfig) (*HTTPClient, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.AuthURL = strings.TrimRight(strings.TrimSpace(cfg.AuthURL), "/")
	cfg.ProjectKey = strings.TrimSpace(cfg.ProjectKey)
	if cfg.BaseURL == "" || cfg.ProjectKey == "" {
		return nil, fmt.Errorf("%w: base_url and project_key are required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = cfg.BaseURL
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}

	failures := cfg.Breaker.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        "commerce",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("commerce_breaker_state_changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*wireResponse](settings),
		now:     time.Now,
	}, nil
}

// RegisterCustomer 注册顾客
func (c *HTTPClient) RegisterCustomer(ctx context.Context, draft CustomerDraft) (*Customer, error) {
	payload := wireCustomerDraft{
		Email:       strings.ToLower(strings.TrimSpace(draft.Email)),
		Password:    draft.Password,
		FirstName:   draft.FirstName,
		LastName:    draft.LastName,
		DateOfBirth: draft.DateOfBirth,
	}
	for _, addr := range draft.Addresses {
		payload.Addresses = append(payload.Addresses, toWireAddress(addr))
	}
	resp, err := c.do(ctx, http.MethodPost, c.projectPath("/customers"), nil, payload)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusBadRequest && isDuplicateField(resp.body) {
		return nil, ErrEmailTaken
	}
	var out wireSignInResult
	if err := decodeWire(resp, &out); err != nil {
		return nil, err
	}
	return out.Customer.toCustomer(), nil
}

// LoginCustomer 邮箱密码登录
func (c *HTTPClient) LoginCustomer(ctx context.Context, email, password string) (*Customer, error) {
	payload := map[string]string{
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"password": password,
	}
	resp, err := c.do(ctx, http.MethodPost, c.projectPath("/login"), nil, payload)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusBadRequest || resp.status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	var out wireSignInResult
	if err := decodeWire(resp, &out); err != nil {
		return nil, err
	}
	return out.Customer.toCustomer(), nil
}

// GetCustomer 获取顾客
func (c *HTTPClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	resp, err := c.do(ctx, http.MethodGet, c.projectPath("/customers/"+url.PathEscape(id)), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, ErrCustomerNotFound
	}
	var out wireCustomer
	if err := decodeWire(resp, &out); err != nil {
		return nil, err
	}
	return out.toCustomer(), nil
}

// UpdateCustomer 按版本号提交更新动作
func (c *HTTPClient) UpdateCustomer(ctx context.Context, id string, version int64, actions []UpdateAction) (*Customer, error) {
	wireActions := make([]map[string]interface{}, 0, len(actions))
	for _, action := range actions {
		encoded, err := toWireAction(action)
		if err != nil {
			return nil, err
		}
		wireActions = append(wireActions, encoded)
	}
	payload := map[string]interface{}{
		"version": version,
		"actions": wireActions,
	}
	resp, err := c.do(ctx, http.MethodPost, c.projectPath("/customers/"+url.PathEscape(id)), nil, payload)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.status == http.StatusNotFound:
		return nil, ErrCustomerNotFound
	case resp.status == http.StatusConflict:
		return nil, ErrVersionConflict
	case resp.status == http.StatusBadRequest && isDuplicateField(resp.body):
		return nil, ErrEmailTaken
	case resp.status == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, firstErrorMessage(resp.body))
	}
	var out wireCustomer
	if err := decodeWire(resp, &out); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Infow("customer_updated",
		"customer_id", id,
		"version", out.Version,
		"actions", ActionNames(actions),
	)
	return out.toCustomer(), nil
}

// GetAllProducts 商品列表
func (c *HTTPClient) GetAllProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	params := pageParams(query)
	if query.CategoryID != "" {
		params.Set("where", fmt.Sprintf("categories(id=%q)", query.CategoryID))
	}
	return c.fetchProducts(ctx, "/product-projections", params, query)
}

// SearchProducts 全文搜索商品
func (c *HTTPClient) SearchProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	if strings.TrimSpace(query.Search) == "" {
		return c.GetAllProducts(ctx, query)
	}
	params := pageParams(query)
	params.Set("text."+wireLocale(query.Locale), strings.TrimSpace(query.Search))
	params.Set("fuzzy", "true")
	if query.CategoryID != "" {
		params.Set("filter.query", fmt.Sprintf("categories.id:%q", query.CategoryID))
	}
	return c.fetchProducts(ctx, "/product-projections/search", params, query)
}

func (c *HTTPClient) fetchProducts(ctx context.Context, path string, params url.Values, query ProductQuery) (*ProductPage, error) {
	resp, err := c.do(ctx, http.MethodGet, c.projectPath(path), params, nil)
	if err != nil {
		return nil, err
	}
	var out wirePaged[wireProduct]
	if err := decodeWire(resp, &out); err != nil {
		return nil, err
	}
	page := &ProductPage{
		Items:    make([]Product, 0, len(out.Results)),
		Total:    out.Total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for _, p := range out.Results {
		page.Items = append(page.Items, p.toProduct(query.Locale))
	}
	return page, nil
}

// GetProduct 获取单个商品
func (c *HTTPClient) GetProduct(ctx context.Context, id, locale string) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrProductNotFound
	}
	resp, err := c.do(ctx, http.MethodGet, c.projectPath("/product-projections/"+url.PathEscape(id)), nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	var out wireProduct
	if err := decodeWire(resp, &out); err != nil {
		return nil, err
	}
	product := out.toProduct(locale)
	return &product, nil
}

// GetCategories 分类树
func (c *HTTPClient) GetCategories(ctx context.Context, locale string) ([]Category, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(categoryFetchLimit))
	params.Set("sort", "orderHint asc")
	resp, err := c.do(ctx, http.MethodGet, c.projectPath("/categories"), params, nil)
	if err != nil {
		return nil, err
	}
	var out wirePaged[wireCategory]
	if err := decodeWire(resp, &out); err != nil {
		return nil, err
	}
	flat := make([]Category, 0, len(out.Results))
	for i, cat := range out.Results {
		node := Category{
			ID:        cat.ID,
			Slug:      localizedString(cat.Slug, locale),
			Name:      localizedString(cat.Name, locale),
			SortOrder: len(out.Results) - i,
		}
		if cat.Parent != nil {
			node.ParentID = cat.Parent.ID
		}
		flat = append(flat, node)
	}
	return BuildCategoryTree(flat), nil
}

func (c *HTTPClient) projectPath(path string) string {
	return "/" + url.PathEscape(c.cfg.ProjectKey) + path
}

// do 执行请求；传输错误与 5xx 计入熔断失败，4xx 原样返回给调用方判断
func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, payload interface{}) (*wireResponse, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal commerce request failed: %w", err)
		}
		body = encoded
	}

	resp, err := c.breaker.Execute(func() (*wireResponse, error) {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := c.send(ctx, method, path, params, token, body)
		if err != nil {
			return nil, err
		}
		if resp.status == http.StatusUnauthorized {
			c.resetToken()
		}
		if resp.status >= http.StatusInternalServerError {
			return nil, fmt.Errorf("commerce status %d", resp.status)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		logger.Ctx(ctx).Warnw("commerce_request_failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, params url.Values, token string, body []byte) (*wireResponse, error) {
	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &wireResponse{status: resp.StatusCode, body: respBody}, nil
}

func (c *HTTPClient) accessToken(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.cfg.ClientID) == "" {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if scopes := strings.TrimSpace(c.cfg.Scopes); scopes != "" {
		form.Set("scope", scopes)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("commerce token status %d", resp.StatusCode)
	}
	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode commerce token failed: %w", err)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return "", errors.New("commerce access_token is empty")
	}
	c.token = parsed.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(parsed.ExpiresIn)*time.Second - tokenRefreshLeeway)
	return c.token, nil
}

func (c *HTTPClient) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func decodeWire(resp *wireResponse, dest interface{}) error {
	if resp.status < 200 || resp.status >= 300 {
		return fmt.Errorf("commerce status %d: %s", resp.status, firstErrorMessage(resp.body))
	}
	if err := json.Unmarshal(resp.body, dest); err != nil {
		return fmt.Errorf("decode commerce response failed: %w", err)
	}
	return nil
}

func pageParams(query ProductQuery) url.Values {
	limit := query.PageSize
	if limit <= 0 {
		limit = defaultRemoteLimit
	}
	if limit > remoteMaxPageLimit {
		limit = remoteMaxPageLimit
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa((page-1)*limit))
	return params
}

func wireLocale(locale string) string {
	if strings.TrimSpace(locale) == "" {
		return fallbackWireLocale
	}
	return locale
}

type wireErrorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func parseWireError(body []byte) wireErrorBody {
	var parsed wireErrorBody
	_ = json.Unmarshal(body, &parsed)
	return parsed
}

func isDuplicateField(body []byte) bool {
	for _, e := range parseWireError(body).Errors {
		if e.Code == "DuplicateField" {
			return true
		}
	}
	return false
}

func firstErrorMessage(body []byte) string {
	parsed := parseWireError(body)
	if len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
		return parsed.Errors[0].Message
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	if len(body) > maxErrorSnippet {
		return string(body[:maxErrorSnippet])
	}
	return string(body)
}

type wireAddress struct {
	ID         string `json:"id,omitempty"`
	Key        string `json:"key,omitempty"`
	StreetName string `json:"streetName,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country"`
	State      string `json:"state,omitempty"`
}

func toWireAddress(addr Address) wireAddress {
	return wireAddress{
		Key:        addr.ID,
		StreetName: addr.StreetName,
		PostalCode: addr.PostalCode,
		City:       addr.City,
		Country:    strings.ToUpper(addr.Country),
		State:      addr.State,
	}
}

type wireCustomerDraft struct {
	Email       string        `json:"email"`
	Password    string        `json:"password"`
	FirstName   string        `json:"firstName,omitempty"`
	LastName    string        `json:"lastName,omitempty"`
	DateOfBirth string        `json:"dateOfBirth,omitempty"`
	Addresses   []wireAddress `json:"addresses,omitempty"`
}

type wireCustomer struct {
	ID                       string        `json:"id"`
	Version                  int64         `json:"version"`
	Email                    string        `json:"email"`
	FirstName                string        `json:"firstName"`
	LastName                 string        `json:"lastName"`
	DateOfBirth              string        `json:"dateOfBirth"`
	Addresses                []wireAddress `json:"addresses"`
	DefaultShippingAddressID string        `json:"defaultShippingAddressId"`
	DefaultBillingAddressID  string        `json:"defaultBillingAddressId"`
}

type wireSignInResult struct {
	Customer wireCustomer `json:"customer"`
}

// toCustomer 远程地址以 key 作为本地 ID，没有 key 的地址回退到远程 id
func (w wireCustomer) toCustomer() *Customer {
	remoteToLocal := make(map[string]string, len(w.Addresses))
	customer := &Customer{
		ID:          w.ID,
		Email:       w.Email,
		FirstName:   w.FirstName,
		LastName:    w.LastName,
		DateOfBirth: w.DateOfBirth,
		Version:     w.Version,
		Addresses:   make([]Address, 0, len(w.Addresses)),
	}
	for _, addr := range w.Addresses {
		localID := addr.Key
		if localID == "" {
			localID = addr.ID
		}
		remoteToLocal[addr.ID] = localID
		customer.Addresses = append(customer.Addresses, Address{
			ID:         localID,
			StreetName: addr.StreetName,
			PostalCode: addr.PostalCode,
			City:       addr.City,
			Country:    addr.Country,
			State:      addr.State,
		})
	}
	customer.DefaultShippingAddressID = remoteToLocal[w.DefaultShippingAddressID]
	customer.DefaultBillingAddressID = remoteToLocal[w.DefaultBillingAddressID]
	return customer
}

func toWireAction(action UpdateAction) (map[string]interface{}, error) {
	out := map[string]interface{}{"action": action.Action}
	switch action.Action {
	case ActionAddAddress:
		if action.Address == nil {
			return nil, fmt.Errorf("%w: addAddress without address", ErrInvalidAction)
		}
		out["address"] = toWireAddress(*action.Address)
	case ActionChangeAddress:
		if action.Address == nil {
			return nil, fmt.Errorf("%w: changeAddress without address", ErrInvalidAction)
		}
		addr := *action.Address
		addr.ID = action.AddressID
		out["addressKey"] = action.AddressID
		out["address"] = toWireAddress(addr)
	case ActionRemoveAddress:
		out["addressKey"] = action.AddressID
	case ActionSetDefaultShippingAddress, ActionSetDefaultBillingAddress:
		if action.AddressID != "" {
			out["addressKey"] = action.AddressID
		}
	case ActionSetFirstName:
		out["firstName"] = action.Value
	case ActionSetLastName:
		out["lastName"] = action.Value
	case ActionChangeEmail:
		out["email"] = action.Value
	case ActionSetDateOfBirth:
		if action.Value != "" {
			out["dateOfBirth"] = action.Value
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, action.Action)
	}
	return out, nil
}

type wirePaged[T any] struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Count   int   `json:"count"`
	Total   int64 `json:"total"`
	Results []T   `json:"results"`
}

type wireMoney struct {
	CentAmount     int64  `json:"centAmount"`
	CurrencyCode   string `json:"currencyCode"`
	FractionDigits int32  `json:"fractionDigits"`
}

func (m wireMoney) toMoney() models.Money {
	digits := m.FractionDigits
	if digits == 0 && m.CurrencyCode != "" {
		digits = 2
	}
	return models.NewMoneyFromDecimal(decimal.New(m.CentAmount, -digits))
}

type wirePrice struct {
	Value      wireMoney `json:"value"`
	Discounted *struct {
		Value wireMoney `json:"value"`
	} `json:"discounted"`
}

type wireProduct struct {
	ID          string            `json:"id"`
	Slug        map[string]string `json:"slug"`
	Name        map[string]string `json:"name"`
	Description map[string]string `json:"description"`
	Categories  []struct {
		ID string `json:"id"`
	} `json:"categories"`
	MasterVariant struct {
		Prices []wirePrice `json:"prices"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"masterVariant"`
}

func (w wireProduct) toProduct(locale string) Product {
	product := Product{
		ID:          w.ID,
		Slug:        localizedString(w.Slug, locale),
		Name:        localizedString(w.Name, locale),
		Description: localizedString(w.Description, locale),
		Price:       models.ZeroMoney(),
		Images:      make([]string, 0, len(w.MasterVariant.Images)),
	}
	if len(w.Categories) > 0 {
		product.CategoryID = w.Categories[0].ID
	}
	if len(w.MasterVariant.Prices) > 0 {
		price := w.MasterVariant.Prices[0]
		product.Price = price.Value.toMoney()
		if price.Discounted != nil {
			discounted := price.Discounted.Value.toMoney()
			product.DiscountedPrice = &discounted
		}
	}
	for _, img := range w.MasterVariant.Images {
		product.Images = append(product.Images, img.URL)
	}
	return product
}

type wireCategory struct {
	ID     string            `json:"id"`
	Slug   map[string]string `json:"slug"`
	Name   map[string]string `json:"name"`
	Parent *struct {
		ID string `json:"id"`
	} `json:"parent"`
}

func localizedString(values map[string]string, locale string) string {
	if v := values[locale]; strings.TrimSpace(v) != "" {
		return v
	}
	if v := values[fallbackWireLocale]; strings.TrimSpace(v) != "" {
		return v
	}
	if short, _, ok := strings.Cut(locale, "-"); ok {
		if v := values[short]; strings.TrimSpace(v) != "" {
			return v
		}
	}
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
