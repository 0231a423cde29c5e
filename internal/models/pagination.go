package models

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes TotalPages as ceil(total/limit). A zero limit
// means the listing was not paginated and everything fits on one page.
func NewPagination(page, limit, total int) Pagination {
	p := Pagination{Page: page, Limit: limit, TotalCount: total}
	switch {
	case limit > 0:
		p.TotalPages = (total + limit - 1) / limit
	case total > 0:
		p.TotalPages = 1
	}
	return p
}

// Offset returns the row offset for a 1-based page.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	return (page - 1) * limit
}
