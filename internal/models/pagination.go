package models

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// PageRequest is the paging portion of list queries.
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Pagination describes paging metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Window clamps the request against total and returns slice bounds plus the
// metadata for the response envelope.
func (p PageRequest) Window(total int) (start, end int, meta *Pagination) {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	size := p.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	start = (page - 1) * size
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end, &Pagination{Page: page, PageSize: size, TotalCount: total}
}
