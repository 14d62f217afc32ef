package pagination

import "math"

const (
	// DefaultPage is the first page served when none is requested.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds page/limit pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize enforces the configured defaults and maximum limits.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.Limit
}

// PageRef points a client at an adjacent page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta describes a result page; Prev/Next are nil at the edges.
type Meta struct {
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalItems int64    `json:"total_items"`
	TotalPages int      `json:"total_pages"`
	Prev       *PageRef `json:"prev"`
	Next       *PageRef `json:"next"`
}

// BuildMeta derives page metadata from the normalized params and row count.
func BuildMeta(p Params, totalItems int64) Meta {
	n := Normalize(p)

	totalPages := 0
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(n.Limit)))
	}

	meta := Meta{
		Page:       n.Page,
		Limit:      n.Limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
	if n.Page > 1 {
		meta.Prev = &PageRef{Page: n.Page - 1, Limit: n.Limit}
	}
	if n.Page < totalPages {
		meta.Next = &PageRef{Page: n.Page + 1, Limit: n.Limit}
	}
	return meta
}
