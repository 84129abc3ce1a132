package models

// Page is the uniform envelope returned by every list endpoint.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Count      int  `json:"count"`
	TotalCount int  `json:"totalCount"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// PageOf slices items into the envelope for the given page and limit.
// A page past the end yields an empty but otherwise valid envelope.
func PageOf[T any](items []T, page, limit int) Page[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	total := len(items)
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	pageItems := items[start:end]

	return Page[T]{
		Items:      pageItems,
		Count:      len(pageItems),
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
