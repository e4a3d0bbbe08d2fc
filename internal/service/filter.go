package service

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sales-service/internal/models"
)

// ParseOrderFilter reads listing filters and pagination from a query string.
// Unparsable limit/offset values fall back to their defaults; a non-integer
// storeId or orderId is rejected.
func ParseOrderFilter(q url.Values) (models.OrderFilter, error) {
	f := models.OrderFilter{
		CompanyID: strings.TrimSpace(q.Get("companyId")),
		SkuID:     strings.TrimSpace(q.Get("skuId")),
		StartDate: strings.TrimSpace(q.Get("startdate")),
		EndDate:   strings.TrimSpace(q.Get("enddate")),
	}

	var err error
	if f.StoreID, err = optionalInt(q, "storeId"); err != nil {
		return models.OrderFilter{}, err
	}
	if f.OrderID, err = optionalInt(q, "orderId"); err != nil {
		return models.OrderFilter{}, err
	}

	f.Limit, f.Offset = models.NormalizePage(intParam(q, "limit"), intParam(q, "offset"))
	return f, nil
}

func optionalInt(q url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidPayload, key)
	}
	return &v, nil
}

// intParam returns 0 for missing or unparsable values so NormalizePage
// applies the default.
func intParam(q url.Values, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
	if err != nil {
		return 0
	}
	return v
}
