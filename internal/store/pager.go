package store

// Pager tracks a 1-based page over a server-side list.
type Pager struct {
	Page    int
	PerPage int
	Total   int
}

// NewPager starts at page 1.
func NewPager(perPage int) Pager {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return Pager{Page: 1, PerPage: perPage}
}

// TotalPages is at least 1.
func (p Pager) TotalPages() int {
	if p.Total <= 0 || p.PerPage <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Offset of the current page.
func (p Pager) Offset() int { return (p.Page - 1) * p.PerPage }

// Apply takes offset, limit and total from a list response.
func (p *Pager) Apply(offset, limit, total int) {
	if limit > 0 {
		p.Page = offset/limit + 1
		p.PerPage = limit
	}
	p.Total = total
}

// CanGoTo reports whether page is a different, existing page.
func (p Pager) CanGoTo(page int) bool {
	return page >= 1 && page <= p.TotalPages() && page != p.Page
}

// SetLimit changes the page size and returns to page 1. It reports false for
// a non-positive or unchanged limit.
func (p *Pager) SetLimit(limit int) bool {
	if limit <= 0 || limit == p.PerPage {
		return false
	}
	p.PerPage = limit
	p.Page = 1
	return true
}

func (p *Pager) seek(page, limit int) {
	p.SetLimit(limit)
	if page >= 1 {
		p.Page = page
	}
}
