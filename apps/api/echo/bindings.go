package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

const (
	orderingParam = "ordering"
	pageParam     = "page"
	pageSizeParam = "page_size"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPage reads the page & page_size query params; missing values fall back to the defaults.
func bindPage(ctx echo.Context) (core.Page, error) {
	var page core.Page
	for param, dst := range map[string]*int{pageParam: &page.Number, pageSizeParam: &page.Size} {
		val := ctx.QueryParam(param)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return core.Page{}, core.NewFieldError(param, param+" must be an integer")
		}
		*dst = n
	}
	page.Clean()
	return page, nil
}

// bindBoolParam parses an optional boolean query param.
func bindBoolParam(ctx echo.Context, param string) (*bool, error) {
	val := ctx.QueryParam(param)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewFieldError(param, param+" must be a boolean")
	}
	return &b, nil
}

// queryList accepts both repeated (?id=a&id=b) and comma separated (?id=a,b) values.
func queryList(ctx echo.Context, param string) []string {
	var out []string
	for _, val := range ctx.QueryParams()[param] {
		for _, v := range strings.Split(val, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func newPageResult(items interface{}, total int, page core.Page) core.PageResult {
	return core.PageResult{Items: items, Total: total, Page: page.Number, PageSize: page.Size}
}
