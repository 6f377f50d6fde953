package article

import (
	"sort"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

var (
	categoryTag  = "category"
	categoryText = "unknown category"

	articleStatusTag  = "articlestatus"
	articleStatusText = "invalid status"
)

// RegisterValidators registers the article validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		return core.ContainsString(Categories, fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	_ = validate.RegisterValidation(articleStatusTag, func(fl validator.FieldLevel) bool {
		return core.ContainsString(Statuses, fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, articleStatusTag, articleStatusText)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// OrderingFields maps orderable fields to their column.
var OrderingFields = map[string]string{
	"published_at": "published_at",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"view_count":   "view_count",
	"title":        "title",
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Sort orders articles in memory; the default is most recently published, then created.
func Sort(articles []Article, ordering []core.DBOrdering) {
	keys := make([]core.DBOrdering, 0, len(ordering)+2)
	for _, ord := range ordering {
		if _, ok := OrderingFields[ord.Field]; ok {
			keys = append(keys, ord)
		}
	}
	if len(keys) == 0 {
		keys = append(keys, core.DBOrdering{Field: "published_at"})
	}
	keys = append(keys, core.DBOrdering{Field: "created_at"})

	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		for _, key := range keys {
			var c int
			switch key.Field {
			case "published_at":
				c = compareTime(timeOrZero(a.PublishedAt), timeOrZero(b.PublishedAt))
			case "created_at":
				c = compareTime(a.CreatedAt, b.CreatedAt)
			case "updated_at":
				c = compareTime(a.UpdatedAt, b.UpdatedAt)
			case "view_count":
				c = a.ViewCount - b.ViewCount
			case "title":
				c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
			}
			if c == 0 {
				continue
			}
			if key.Ascending {
				return c < 0
			}
			return c > 0
		}
		return a.ID < b.ID
	})
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
