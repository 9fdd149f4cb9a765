package repository

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	CategoryID uint
	Search     string
	OnlyActive bool
}

// CustomerUpdate 顾客资料整体写入，按版本号乐观更新
type CustomerUpdate struct {
	ExpectedVersion int64
	FirstName       string
	LastName        string
	Email           string
	DateOfBirth     string
	DefaultShipping string
	DefaultBilling  string
}
