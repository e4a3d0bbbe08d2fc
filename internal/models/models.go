package models

// OrderRecord is one sold line item. CompanyID, StoreID, OrderID and SkuID
// form the natural key; ID is assigned by the store.
type OrderRecord struct {
	ID              int64    `db:"id" json:"id"`
	CompanyID       string   `db:"company_id" json:"companyId"`
	Produced        float64  `db:"produced" json:"produced"`
	StoreID         int64    `db:"store_id" json:"storeId"`
	OrderID         int64    `db:"order_id" json:"orderId"`
	SkuID           string   `db:"sku_id" json:"skuId"`
	ProductID       *string  `db:"product_id" json:"productId"`
	Category        *string  `db:"category" json:"category"`
	Model           *string  `db:"model" json:"model"`
	Cost            *float64 `db:"cost" json:"cost"`
	Subcategory     *string  `db:"subcategory" json:"subcategory"`
	Brand           *string  `db:"brand" json:"brand"`
	Collection      *string  `db:"collection" json:"collection"`
	Quantity        *float64 `db:"quantity" json:"quantity"`
	SalePrice       *float64 `db:"sale_price" json:"salePrice"`
	Discount        *float64 `db:"discount" json:"discount"`
	Total           *float64 `db:"total" json:"total"`
	Description     *string  `db:"description" json:"description"`
	Color           *string  `db:"color" json:"color"`
	Size            *string  `db:"size" json:"size"`
	TransactionCode *string  `db:"transaction_code" json:"transactionCode"`
	CustomerName    *string  `db:"customer_name" json:"customerName"`
	Payment         *string  `db:"payment" json:"payment"`
	SaleDatetime    *string  `db:"sale_datetime" json:"saleDatetime"`
	SellerName      *string  `db:"seller_name" json:"sellerName"`
}

// NaturalKey identifies an order line independently of its surrogate id.
type NaturalKey struct {
	CompanyID string
	StoreID   int64
	OrderID   int64
	SkuID     string
}

// Key returns the natural key of the record.
func (o *OrderRecord) Key() NaturalKey {
	return NaturalKey{
		CompanyID: o.CompanyID,
		StoreID:   o.StoreID,
		OrderID:   o.OrderID,
		SkuID:     o.SkuID,
	}
}

// UpsertResult reports the row touched by an upsert
type UpsertResult struct {
	ID      int64
	Changes int64
}

// OrderFilter narrows a listing. Empty strings and nil pointers mean "no
// filter"; StartDate and EndDate are plain dates (YYYY-MM-DD).
type OrderFilter struct {
	CompanyID string
	StoreID   *int64
	OrderID   *int64
	SkuID     string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

// Listing bounds
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// NormalizePage clamps pagination: a non-positive limit falls back to the
// default, larger limits are capped, negative offsets become zero.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// RangeStart expands a date to the first second of that day.
func RangeStart(date string) string {
	return date + " 00:00:00"
}

// RangeEnd expands a date to the last second of that day.
func RangeEnd(date string) string {
	return date + " 23:59:59"
}
