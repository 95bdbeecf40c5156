// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

// Page is a normalised pagination window.
type Page struct {
	Page     int
	PageSize int
	Offset   int
}

// Paginate clamps page to >= 1 and pageSize to [1, max], substituting def
// for a non-positive pageSize, and derives the row offset.
//
// Example:
//
//	p := utils.Paginate(3, 0, 20, 100) // {Page: 3, PageSize: 20, Offset: 40}
func Paginate(page, pageSize, def, max int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = def
	}
	if max > 0 && pageSize > max {
		pageSize = max
	}
	return Page{Page: page, PageSize: pageSize, Offset: (page - 1) * pageSize}
}

// TotalPages returns ceil(total / pageSize), or 0 when pageSize <= 0.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
