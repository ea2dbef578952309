// internal/core/domain/listing.go
package domain

import "strings"

// ItemsPerPage is the fixed page size of the inspection table
const ItemsPerPage = 8

// PageChange is the outcome of a page navigation request
type PageChange int

const (
	// PageChanged means the requested page was in range and is now current
	PageChanged PageChange = iota
	// PageChangeIgnored means the request was out of range and nothing changed
	PageChangeIgnored
)

func (c PageChange) String() string {
	if c == PageChanged {
		return "changed"
	}
	return "ignored"
}

// Matches reports whether query is a case-sensitive substring of the
// client's "first last" name or of the street name.
func (i Inspection) Matches(query string) bool {
	return strings.Contains(i.Address.Client.FullName(), query) ||
		strings.Contains(i.Address.Street, query)
}

// Filter returns the records matching query, in their original order.
// An empty query matches every record.
func Filter(records []Inspection, query string) []Inspection {
	out := make([]Inspection, 0, len(records))
	for _, rec := range records {
		if rec.Matches(query) {
			out = append(out, rec)
		}
	}
	return out
}

// TotalPages returns ceil(n / ItemsPerPage)
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + ItemsPerPage - 1) / ItemsPerPage
}

// ListView is the derived state of the inspection table: the full fetched
// list, the active query and the current page. Values are immutable; every
// transition returns a new ListView.
type ListView struct {
	all      []Inspection
	filtered []Inspection
	query    string
	page     int
}

// NewListView filters all by query and starts at page 1
func NewListView(all []Inspection, query string) ListView {
	return ListView{
		all:      all,
		filtered: Filter(all, query),
		query:    query,
		page:     1,
	}
}

// Search applies a new query. The page is always reset to 1.
func (v ListView) Search(query string) ListView {
	return NewListView(v.all, query)
}

// GoTo moves to page p when 1 <= p <= TotalPages. Out of range requests
// leave the view untouched.
func (v ListView) GoTo(p int) (ListView, PageChange) {
	if p < 1 || p > v.TotalPages() {
		return v, PageChangeIgnored
	}
	v.page = p
	return v, PageChanged
}

// Items returns the window [(page-1)*8, page*8) of the filtered list
func (v ListView) Items() []Inspection {
	start := (v.page - 1) * ItemsPerPage
	if start >= len(v.filtered) {
		return []Inspection{}
	}
	end := start + ItemsPerPage
	if end > len(v.filtered) {
		end = len(v.filtered)
	}
	return v.filtered[start:end]
}

// Filtered returns every record matching the query
func (v ListView) Filtered() []Inspection { return v.filtered }

// Query returns the active search query
func (v ListView) Query() string { return v.query }

// Page returns the current page, 1-based
func (v ListView) Page() int { return v.page }

// TotalItems is the number of records matching the query
func (v ListView) TotalItems() int { return len(v.filtered) }

// TotalPages is ceil(TotalItems / ItemsPerPage)
func (v ListView) TotalPages() int { return TotalPages(len(v.filtered)) }

// Empty reports the "no results" state
func (v ListView) Empty() bool { return len(v.filtered) == 0 }

// HasPrev reports whether a previous page exists
func (v ListView) HasPrev() bool { return v.page > 1 }

// HasNext reports whether a next page exists
func (v ListView) HasNext() bool { return v.page < v.TotalPages() }

// Pages returns 1..TotalPages for the numbered pagination buttons
func (v ListView) Pages() []int {
	pages := make([]int, v.TotalPages())
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}
