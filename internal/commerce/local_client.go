package commerce

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalClient 基于本地数据库的商务后端
type LocalClient struct {
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	bcryptCost   int
}

// NewLocalClient 创建本地商务后端
func NewLocalClient(customerRepo repository.CustomerRepository, productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *LocalClient {
	return &LocalClient{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

// WithBcryptCost 调整哈希强度，测试中使用 bcrypt.MinCost
func (c *LocalClient) WithBcryptCost(cost int) *LocalClient {
	c.bcryptCost = cost
	return c
}

// RegisterCustomer 注册顾客
func (c *LocalClient) RegisterCustomer(ctx context.Context, draft CustomerDraft) (*Customer, error) {
	email := strings.ToLower(strings.TrimSpace(draft.Email))
	existing, err := c.customerRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(draft.Password), c.bcryptCost)
	if err != nil {
		return nil, err
	}

	row := &models.Customer{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(draft.FirstName),
		LastName:     strings.TrimSpace(draft.LastName),
		DateOfBirth:  strings.TrimSpace(draft.DateOfBirth),
		Version:      1,
	}
	for i, addr := range draft.Addresses {
		if strings.TrimSpace(addr.ID) == "" {
			addr.ID = uuid.NewString()
		}
		row.Addresses = append(row.Addresses, toAddressRow(row.ID, i, addr))
	}
	if err := c.customerRepo.Create(row); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Infow("customer_registered", "customer_id", row.ID)
	return toCustomer(row), nil
}

// LoginCustomer 邮箱密码登录
func (c *LocalClient) LoginCustomer(ctx context.Context, email, password string) (*Customer, error) {
	row, err := c.customerRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return toCustomer(row), nil
}

// GetCustomer 获取顾客
func (c *LocalClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	row, err := c.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrCustomerNotFound
	}
	return toCustomer(row), nil
}

// UpdateCustomer 按版本号执行更新动作
func (c *LocalClient) UpdateCustomer(ctx context.Context, id string, version int64, actions []UpdateAction) (*Customer, error) {
	row, err := c.customerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrCustomerNotFound
	}
	if row.Version != version {
		return nil, ErrVersionConflict
	}
	current := toCustomer(row)
	next, err := ApplyActions(*current, actions)
	if err != nil {
		return nil, err
	}
	if next.Email != current.Email {
		other, err := c.customerRepo.GetByEmail(next.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, ErrEmailTaken
		}
	}

	addresses := make([]models.CustomerAddress, 0, len(next.Addresses))
	for i, addr := range next.Addresses {
		addresses = append(addresses, toAddressRow(id, i, addr))
	}
	update := repository.CustomerUpdate{
		ExpectedVersion: version,
		FirstName:       next.FirstName,
		LastName:        next.LastName,
		Email:           next.Email,
		DateOfBirth:     next.DateOfBirth,
		DefaultShipping: next.DefaultShippingAddressID,
		DefaultBilling:  next.DefaultBillingAddressID,
	}
	if err := c.customerRepo.SaveVersioned(id, update, addresses); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	logger.Ctx(ctx).Infow("customer_updated",
		"customer_id", id,
		"version", version+1,
		"actions", ActionNames(actions),
	)
	return c.GetCustomer(ctx, id)
}

// GetAllProducts 商品列表
func (c *LocalClient) GetAllProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	query.Search = ""
	return c.listProducts(query)
}

// SearchProducts 按关键字搜索商品
func (c *LocalClient) SearchProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	return c.listProducts(query)
}

func (c *LocalClient) listProducts(query ProductQuery) (*ProductPage, error) {
	filter := repository.ProductListFilter{
		Page:       query.Page,
		PageSize:   query.PageSize,
		Search:     query.Search,
		OnlyActive: true,
	}
	if query.CategoryID != "" {
		categoryID, err := strconv.ParseUint(query.CategoryID, 10, 64)
		if err != nil {
			return &ProductPage{Items: []Product{}, Page: query.Page, PageSize: query.PageSize}, nil
		}
		filter.CategoryID = uint(categoryID)
	}
	rows, total, err := c.productRepo.List(filter)
	if err != nil {
		return nil, err
	}
	items := make([]Product, 0, len(rows))
	for i := range rows {
		items = append(items, toProduct(&rows[i], query.Locale))
	}
	return &ProductPage{Items: items, Total: total, Page: query.Page, PageSize: query.PageSize}, nil
}

// GetProduct 获取单个上架商品
func (c *LocalClient) GetProduct(ctx context.Context, id, locale string) (*Product, error) {
	productID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || productID == 0 {
		return nil, ErrProductNotFound
	}
	row, err := c.productRepo.GetByID(uint(productID), true)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrProductNotFound
	}
	product := toProduct(row, locale)
	return &product, nil
}

// GetCategories 分类树
func (c *LocalClient) GetCategories(ctx context.Context, locale string) ([]Category, error) {
	rows, err := c.categoryRepo.List()
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(toCategories(rows, locale)), nil
}

func toCategories(rows []models.Category, locale string) []Category {
	flat := make([]Category, 0, len(rows))
	for _, row := range rows {
		node := Category{
			ID:        strconv.FormatUint(uint64(row.ID), 10),
			Slug:      row.Slug,
			Name:      row.NameJSON.Localized(locale),
			SortOrder: row.SortOrder,
		}
		if row.ParentID != nil {
			node.ParentID = strconv.FormatUint(uint64(*row.ParentID), 10)
		}
		flat = append(flat, node)
	}
	return flat
}

func toProduct(row *models.Product, locale string) Product {
	product := Product{
		ID:          strconv.FormatUint(uint64(row.ID), 10),
		Slug:        row.Slug,
		Name:        row.TitleJSON.Localized(locale),
		Description: row.DescriptionJSON.Localized(locale),
		CategoryID:  strconv.FormatUint(uint64(row.CategoryID), 10),
		Price:       row.PriceAmount,
		Images:      []string(row.Images),
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if row.HasDiscount {
		discounted := row.DiscountedPriceAmount
		product.DiscountedPrice = &discounted
	}
	return product
}

func toCustomer(row *models.Customer) *Customer {
	customer := &Customer{
		ID:                       row.ID,
		Email:                    row.Email,
		FirstName:                row.FirstName,
		LastName:                 row.LastName,
		DateOfBirth:              row.DateOfBirth,
		DefaultShippingAddressID: row.DefaultShippingAddressID,
		DefaultBillingAddressID:  row.DefaultBillingAddressID,
		Version:                  row.Version,
		Addresses:                make([]Address, 0, len(row.Addresses)),
	}
	for _, addr := range row.Addresses {
		customer.Addresses = append(customer.Addresses, Address{
			ID:         addr.ID,
			StreetName: addr.StreetName,
			PostalCode: addr.PostalCode,
			City:       addr.City,
			Country:    addr.Country,
			State:      addr.State,
		})
	}
	return customer
}

func toAddressRow(customerID string, position int, addr Address) models.CustomerAddress {
	return models.CustomerAddress{
		ID:         addr.ID,
		CustomerID: customerID,
		Position:   position,
		StreetName: strings.TrimSpace(addr.StreetName),
		PostalCode: strings.TrimSpace(addr.PostalCode),
		City:       strings.TrimSpace(addr.City),
		Country:    strings.ToUpper(strings.TrimSpace(addr.Country)),
		State:      strings.TrimSpace(addr.State),
	}
}
