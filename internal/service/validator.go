package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"sales-service/internal/models"
)

// DecodeOrderPayload parses a request body holding either a single record
// (batch=false, one element) or an array of records (batch=true). Numbers are
// kept as json.Number so large ids survive intact.
func DecodeOrderPayload(data []byte) (raws []interface{}, batch bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("%w: trailing data after JSON document", ErrInvalidPayload)
	}

	switch v := doc.(type) {
	case []interface{}:
		return v, true, nil
	case map[string]interface{}:
		return []interface{}{v}, false, nil
	default:
		return nil, false, fmt.Errorf("%w: expected a JSON object or an array of objects", ErrInvalidPayload)
	}
}

// ValidateRecord turns an untyped record into an OrderRecord. The key fields
// and produced must be present with the right types; optional fields that
// are absent come back nil.
func ValidateRecord(raw interface{}) (*models.OrderRecord, error) {
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &ValidationError{Reason: requiredFieldsReason}
	}

	companyID, okCompany := fields["companyId"].(string)
	skuID, okSku := fields["skuId"].(string)
	storeID, okStore := integerValue(fields["storeId"])
	orderID, okOrder := integerValue(fields["orderId"])
	produced, okProduced := numberValue(fields["produced"])
	if !okCompany || !okSku || !okStore || !okOrder || !okProduced {
		return nil, &ValidationError{Reason: requiredFieldsReason}
	}

	return &models.OrderRecord{
		CompanyID:       companyID,
		Produced:        produced,
		StoreID:         storeID,
		OrderID:         orderID,
		SkuID:           skuID,
		ProductID:       textField(fields, "productId"),
		Category:        textField(fields, "category"),
		Model:           textField(fields, "model"),
		Cost:            realField(fields, "cost"),
		Subcategory:     textField(fields, "subcategory"),
		Brand:           textField(fields, "brand"),
		Collection:      textField(fields, "collection"),
		Quantity:        realField(fields, "quantity"),
		SalePrice:       realField(fields, "salePrice"),
		Discount:        realField(fields, "discount"),
		Total:           realField(fields, "total"),
		Description:     textField(fields, "description"),
		Color:           textField(fields, "color"),
		Size:            textField(fields, "size"),
		TransactionCode: textField(fields, "transactionCode"),
		CustomerName:    textField(fields, "customerName"),
		Payment:         textField(fields, "payment"),
		SaleDatetime:    textField(fields, "saleDatetime"),
		SellerName:      textField(fields, "sellerName"),
	}, nil
}

func numberValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// integerValue accepts numbers with no fractional part.
func integerValue(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	}

	f, ok := numberValue(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// textField reads an optional text column. Numbers are stored in their
// decimal form; any other shape is treated as null.
func textField(fields map[string]interface{}, name string) *string {
	var s string
	switch v := fields[name].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return nil
	}
	return &s
}

// realField reads an optional numeric column. Numeric strings are parsed;
// any other shape is treated as null.
func realField(fields map[string]interface{}, name string) *float64 {
	v := fields[name]
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	f, ok := numberValue(v)
	if !ok {
		return nil
	}
	return &f
}
