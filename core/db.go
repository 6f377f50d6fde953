package core

import (
	"strings"

	"github.com/volatiletech/strmangle"
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return strmangle.IdentQuote('"', '"', ord.Field) + " " + direction
}

// OrderingClause joins orderings whose Field is in allowed, keeping the request order.
// Unknown fields are dropped. The default clause is returned when nothing is left.
func OrderingClause(ordering []DBOrdering, allowed map[string]string, dflt string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		parts = append(parts, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(parts) == 0 {
		return dflt
	}
	return strings.Join(parts, ", ")
}

// Page describes a 1-based pagination window.
type Page struct {
	Number int `query:"page" json:"page"`
	Size   int `query:"page_size" json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Clean clamps the page to sane bounds.
func (p *Page) Clean() {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Bounds returns the [start, end) window of the page within a list of length n.
func (p Page) Bounds(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Size
	if end > n {
		end = n
	}
	return start, end
}

// PageResult wraps a page of items with the total count of matching items.
type PageResult struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
