package commerce

import (
	"context"

	"github.com/storefront-next/internal/models"
)

// Address 顾客地址
type Address struct {
	ID         string `json:"id,omitempty"`
	StreetName string `json:"street_name"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	State      string `json:"state,omitempty"`
}

// Customer 顾客资料，Version 用于乐观并发控制
type Customer struct {
	ID                       string    `json:"id"`
	Email                    string    `json:"email"`
	FirstName                string    `json:"first_name"`
	LastName                 string    `json:"last_name"`
	DateOfBirth              string    `json:"date_of_birth,omitempty"`
	Addresses                []Address `json:"addresses"`
	DefaultShippingAddressID string    `json:"default_shipping_address_id,omitempty"`
	DefaultBillingAddressID  string    `json:"default_billing_address_id,omitempty"`
	Version                  int64     `json:"version"`
}

// Clone 深拷贝顾客资料
func (c Customer) Clone() Customer {
	out := c
	if c.Addresses != nil {
		out.Addresses = make([]Address, len(c.Addresses))
		copy(out.Addresses, c.Addresses)
	}
	return out
}

// AddressByID 按 ID 查找地址下标
func (c Customer) AddressByID(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	for i, addr := range c.Addresses {
		if addr.ID == id {
			return i, true
		}
	}
	return -1, false
}

// CustomerDraft 注册草稿
type CustomerDraft struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth string
	Addresses   []Address
}

// 更新动作名称
const (
	ActionAddAddress                = "addAddress"
	ActionChangeAddress             = "changeAddress"
	ActionRemoveAddress             = "removeAddress"
	ActionSetDefaultShippingAddress = "setDefaultShippingAddress"
	ActionSetDefaultBillingAddress  = "setDefaultBillingAddress"
	ActionSetFirstName              = "setFirstName"
	ActionSetLastName               = "setLastName"
	ActionChangeEmail               = "changeEmail"
	ActionSetDateOfBirth            = "setDateOfBirth"
)

// UpdateAction 单个顾客更新动作，按顺序执行
type UpdateAction struct {
	Action    string   `json:"action"`
	AddressID string   `json:"address_id,omitempty"`
	Address   *Address `json:"address,omitempty"`
	Value     string   `json:"value,omitempty"`
}

// ActionNames 返回动作名称列表
func ActionNames(actions []UpdateAction) []string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Action)
	}
	return names
}

// Product 目录商品视图
type Product struct {
	ID              string        `json:"id"`
	Slug            string        `json:"slug"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	CategoryID      string        `json:"category_id"`
	Price           models.Money  `json:"price"`
	DiscountedPrice *models.Money `json:"discounted_price,omitempty"`
	Images          []string      `json:"images"`
}

// Category 分类树节点
type Category struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parent_id,omitempty"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	SortOrder int        `json:"sort_order"`
	Children  []Category `json:"children,omitempty"`
}

// ProductQuery 商品查询条件
type ProductQuery struct {
	Locale     string
	CategoryID string
	Search     string
	Page       int
	PageSize   int
}

// ProductPage 分页商品
type ProductPage struct {
	Items    []Product `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// Client 商务后端客户端
type Client interface {
	RegisterCustomer(ctx context.Context, draft CustomerDraft) (*Customer, error)
	LoginCustomer(ctx context.Context, email, password string) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	UpdateCustomer(ctx context.Context, id string, version int64, actions []UpdateAction) (*Customer, error)
	GetAllProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, id, locale string) (*Product, error)
	SearchProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	GetCategories(ctx context.Context, locale string) ([]Category, error)
}
