package models

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// TransactionFilters narrows a transaction list query. Zero values are
// omitted; the server applies AND semantics across whatever is provided.
type TransactionFilters struct {
	Year      int
	Month     int
	Type      TransactionType
	Category  string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// Values shapes the filters into query parameters.
func (f TransactionFilters) Values() url.Values {
	v := url.Values{}
	if f.Year != 0 {
		v.Set("year", strconv.Itoa(f.Year))
	}
	if f.Month != 0 {
		v.Set("month", strconv.Itoa(f.Month))
	}
	if f.Type != "" && f.Type != TypeAll {
		v.Set("type", string(f.Type))
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.StartDate != "" {
		v.Set("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		v.Set("endDate", f.EndDate)
	}
	if f.Page != 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit != 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// CacheKey renders the filters as a canonical sorted k=v string so that two
// equal filter sets always map to the same cache entry.
func (f TransactionFilters) CacheKey() string {
	v := f.Values()
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v.Get(k)))
	}
	return strings.Join(pairs, "&")
}
