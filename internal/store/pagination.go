// Package store contains the client-side state containers that sit
// between the console UI and the remote API: the auth session store,
// the ambassador admin store and the referral self-service store. Each
// store exclusively owns its state slice; mutation happens only through
// its own methods.
package store

// defaultItemsPerPage matches the table page size used everywhere in
// the console.
const defaultItemsPerPage = 10

// Paginator tracks a 1-indexed page over a filtered item count.
type Paginator struct {
	page         int
	itemsPerPage int
}

// NewPaginator starts at page 1 with the default page size.
func NewPaginator() Paginator {
	return Paginator{page: 1, itemsPerPage: defaultItemsPerPage}
}

// Page returns the current page, 1-indexed.
func (p *Paginator) Page() int {
	return p.page
}

// ItemsPerPage returns the fixed page size.
func (p *Paginator) ItemsPerPage() int {
	return p.itemsPerPage
}

// TotalPages returns ceil(total/itemsPerPage) with a floor of 1, so an
// empty filtered set still displays as "Page 1 of 1".
func (p *Paginator) TotalPages(total int) int {
	pages := (total + p.itemsPerPage - 1) / p.itemsPerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// SetPage moves to page, clamped to [1, TotalPages(total)]. Out-of-range
// requests never produce an out-of-range slice.
func (p *Paginator) SetPage(page, total int) {
	if page < 1 {
		page = 1
	}
	if max := p.TotalPages(total); page > max {
		page = max
	}
	p.page = page
}

// Reset returns to page 1. Called whenever the active search filter
// changes.
func (p *Paginator) Reset() {
	p.page = 1
}

// Bounds returns the [start, end) slice indexes of the current page for
// a filtered set of the given size. The current page is re-clamped
// first, so a set that shrank underneath a high page number still
// yields a valid window.
func (p *Paginator) Bounds(total int) (start, end int) {
	p.SetPage(p.page, total)
	start = (p.page - 1) * p.itemsPerPage
	if start > total {
		start = total
	}
	end = start + p.itemsPerPage
	if end > total {
		end = total
	}
	return start, end
}
