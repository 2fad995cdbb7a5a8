package models

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Sort fields accepted by post listing.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortTitle     = "title"
	SortCategory  = "category"
)

// PostQuery describes one page of a post listing.
type PostQuery struct {
	Search   string
	Category string
	SortBy   string
	Desc     bool
	Page     int
	Limit    int
}

// NewPostQuery builds a PostQuery from raw query-string values, falling back
// to defaults for anything missing or malformed.
func NewPostQuery(search, category, sortBy, order, page, limit string) PostQuery {
	q := PostQuery{
		Search:   search,
		Category: category,
		SortBy:   SortCreatedAt,
		Desc:     order != "asc",
		Page:     parsePositive(page, DefaultPage),
		Limit:    parsePositive(limit, DefaultLimit),
	}
	if q.Category == "All" {
		q.Category = ""
	}
	switch sortBy {
	case SortCreatedAt, SortUpdatedAt, SortTitle, SortCategory:
		q.SortBy = sortBy
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// Keep (Page-1)*Limit representable.
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
	return q
}

// Skip is the number of matching posts before this page.
func (q PostQuery) Skip() int {
	return (q.Page - 1) * q.Limit
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Pagination is the descriptor returned alongside a page of posts.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination computes the descriptor for page of size limit over total items.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalPosts:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
