package common

import (
	"net/http"
	"strconv"
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// Page is a parsed page request.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// ParsePagination extracts page and limit query parameters, capping limit at maxPerPage.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) Page {
	page := Page{Number: 1, PerPage: defaultPerPage}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page.Number = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		page.PerPage = l
	}
	if maxPerPage > 0 && page.PerPage > maxPerPage {
		page.PerPage = maxPerPage
	}
	return page
}
