package store

import (
	"fmt"
	"strings"

	"sales-service/internal/models"
)

// keyColumns is the natural key the upsert conflicts on.
var keyColumns = []string{"company_id", "store_id", "order_id", "sku_id"}

// orderColumns lists every caller-supplied column in insert order.
var orderColumns = []string{
	"company_id", "produced", "store_id", "order_id", "sku_id",
	"product_id", "category", "model", "cost", "subcategory", "brand",
	"collection", "quantity", "sale_price", "discount", "total",
	"description", "color", "size", "transaction_code", "customer_name",
	"payment", "sale_datetime", "seller_name",
}

var (
	selectColumns = "id, " + strings.Join(orderColumns, ", ")
	upsertQuery   = buildUpsertQuery()
)

func isKeyColumn(col string) bool {
	for _, k := range keyColumns {
		if k == col {
			return true
		}
	}
	return false
}

// buildUpsertQuery renders a named insert that overwrites every non-key
// column on conflict, nulls included.
func buildUpsertQuery() string {
	values := make([]string, len(orderColumns))
	updates := make([]string, 0, len(orderColumns)-len(keyColumns))
	for i, col := range orderColumns {
		values[i] = ":" + col
		if !isKeyColumn(col) {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	return fmt.Sprintf(
		"INSERT INTO orders (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING id",
		strings.Join(orderColumns, ", "),
		strings.Join(values, ", "),
		strings.Join(keyColumns, ", "),
		strings.Join(updates, ", "),
	)
}

// buildListQuery renders the listing query with '?' bindvars; callers rebind
// it for their driver. Filter values only ever travel as arguments.
func buildListQuery(f models.OrderFilter) (string, []interface{}) {
	var where []string
	var args []interface{}

	if f.CompanyID != "" {
		where = append(where, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.StoreID != nil {
		where = append(where, "store_id = ?")
		args = append(args, *f.StoreID)
	}
	if f.OrderID != nil {
		where = append(where, "order_id = ?")
		args = append(args, *f.OrderID)
	}
	if f.SkuID != "" {
		where = append(where, "sku_id = ?")
		args = append(args, f.SkuID)
	}
	if f.StartDate != "" {
		where = append(where, "sale_datetime >= ?")
		args = append(args, models.RangeStart(f.StartDate))
	}
	if f.EndDate != "" {
		where = append(where, "sale_datetime <= ?")
		args = append(args, models.RangeEnd(f.EndDate))
	}

	limit, offset := models.NormalizePage(f.Limit, f.Offset)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectColumns)
	sb.WriteString(" FROM orders")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY sale_datetime DESC NULLS LAST, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	return sb.String(), args
}
