package services

import (
	"strconv"
	"strings"
)

// Page describes one page of a paginated listing.
type Page struct {
	Number   int `json:"page"`
	NumPages int `json:"num_pages"`
	Count    int `json:"count"`
	PerPage  int `json:"per_page"`
}

// NewPage resolves the raw ?page= value against count items split into
// pages of perPage. Missing or non-numeric values give the first page;
// numbers outside 1..NumPages give the last page. An empty listing still
// has one page.
func NewPage(count, perPage int, raw string) Page {
	if perPage < 1 {
		perPage = 1
	}
	numPages := (count + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}

	p := Page{Number: 1, NumPages: numPages, Count: count, PerPage: perPage}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return p
	}
	if n < 1 || n > numPages {
		n = numPages
	}
	p.Number = n
	return p
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}

func (p Page) PreviousPageNumber() int {
	return p.Number - 1
}

func (p Page) NextPageNumber() int {
	return p.Number + 1
}

// PageRange lists every page number, for rendering the paginator.
func (p Page) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
