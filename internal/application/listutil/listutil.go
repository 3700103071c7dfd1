// Package listutil parses and describes paged admin listings.
package listutil

import (
	"net/url"
	"strconv"
)

// DefaultPerPage is the page size when the request names none.
const DefaultPerPage = 20

// MaxPerPage caps per_page so one request cannot dump a whole table.
const MaxPerPage = 100

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// Normalize applies the defaults and bounds used by ParsePageParams.
// Zero values from callers that build PageParams by hand become page 1 of DefaultPerPage.
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = DefaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the SQL OFFSET of the page.
func (p PageParams) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PerPage
}

// ParsePageParams extracts page and per_page from URL query values.
// Malformed numbers fall back to the defaults rather than failing the request.
// POST: returns PageParams with Page >= 1 and 1 <= PerPage <= MaxPerPage
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return PageParams{Page: page, PerPage: perPage}.Normalize()
}

// PageInfo describes the page returned alongside a listing.
type PageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPageInfo computes pagination metadata. A page past the end is clamped to the last page.
// PRE: total >= 0
// POST: 1 <= Page <= TotalPages; TotalPages is at least 1
func NewPageInfo(params PageParams, total int) PageInfo {
	params = params.Normalize()
	totalPages := max((total+params.PerPage-1)/params.PerPage, 1)
	page := min(params.Page, totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    params.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}
