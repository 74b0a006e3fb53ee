package kernel

// PaginationOptions is the common page/page-size request pair.
type PaginationOptions struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize applies defaults and bounds.
func (p PaginationOptions) Normalize() PaginationOptions {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset returns the row offset for the current page.
func (p PaginationOptions) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page describes the page position of a result set.
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
	Total  int `json:"total"`
}

// Paginated wraps a page of items with its position.
type Paginated[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"page"`
}

// NewPaginated builds a Paginated result.
func NewPaginated[T any](items []T, page, pageSize, total int) Paginated[T] {
	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   pageSize,
			Total:  total,
		},
	}
}
