// Package pager maintains an offset/limit window over list endpoints.
//
// The backend returns pages without a total count, so "has more" is inferred
// from page fullness: a full page is assumed to have a successor. That is a
// deliberate over-estimate; the next request coming back empty is the
// correction signal.
package pager

// Pager tracks the current window. Not safe for concurrent use; a pager
// belongs to a single command loop.
type Pager struct {
	offset  int
	limit   int
	hasMore bool
}

// New creates a pager on the first page.
func New(limit int) *Pager {
	if limit < 1 {
		limit = 1
	}
	return &Pager{limit: limit, hasMore: true}
}

// Offset returns the current window offset.
func (p *Pager) Offset() int { return p.offset }

// Seek jumps to an absolute offset, clamped to zero. The "has more" estimate
// resets until the next Observe.
func (p *Pager) Seek(offset int) {
	if offset < 0 {
		offset = 0
	}
	p.offset = offset
	p.hasMore = true
}

// Limit returns the window size.
func (p *Pager) Limit() int { return p.limit }

// Page returns the 1-based page number for the current offset.
func (p *Pager) Page() int {
	return p.offset/p.limit + 1
}

// Observe records the length of the page just fetched for the current
// offset and derives whether a further page is assumed to exist.
func (p *Pager) Observe(pageLen int) {
	p.hasMore = pageLen >= p.limit
}

// HasMore reports whether a next page is assumed to exist.
func (p *Pager) HasMore() bool { return p.hasMore }

// Previous moves the window back one page. It reports whether the offset
// changed; on the first page it is a no-op.
func (p *Pager) Previous() bool {
	if p.offset < p.limit {
		return false
	}
	p.offset -= p.limit
	return true
}

// Next moves the window forward one page. It reports whether the offset
// changed; without an assumed next page it is a no-op.
func (p *Pager) Next() bool {
	if !p.hasMore {
		return false
	}
	p.offset += p.limit
	return true
}
