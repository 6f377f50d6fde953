package analytics

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultDays  = 30
	DefaultLimit = 10

	// ActiveWindow is how recently a user must have been seen to count as active.
	ActiveWindow = 30 * 24 * time.Hour

	dayLayout = "2006-01-02"
)

type (
	Totals struct {
		Users                    int            `json:"users"`
		ActiveUsers              int            `json:"active_users"`
		OnboardedUsers           int            `json:"onboarded_users"`
		OnboardingCompletionRate float64        `json:"onboarding_completion_rate"`
		ArticlesByStatus         map[string]int `json:"articles_by_status"`
		Comments                 int            `json:"comments"`
		ClaimsByStatus           map[string]int `json:"claims_by_status"`
		Referrals                int            `json:"referrals"`
		SavedUniversities        int            `json:"saved_universities"`
	}

	ArticleViews struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Slug      string `json:"slug"`
		ViewCount int    `json:"view_count"`
	}

	UniversitySaves struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Slug  string `json:"slug"`
		Saves int    `json:"saves"`
	}

	DailyCount struct {
		Day   string `json:"day"` // YYYY-MM-DD, UTC
		Count int    `json:"count"`
	}

	PersonaCount struct {
		Persona string `json:"persona"`
		Count   int    `json:"count"`
	}

	Dashboard struct {
		GeneratedAt   time.Time         `json:"generated_at"`
		Days          int               `json:"days"`
		Totals        Totals            `json:"totals"`
		TopArticles   []ArticleViews    `json:"top_articles"`
		MostSaved     []UniversitySaves `json:"most_saved_universities"`
		SignupsPerDay []DailyCount      `json:"signups_per_day"`
		Personas      []PersonaCount    `json:"personas"`
	}

	Query struct {
		Days  int `query:"days" validate:"omitempty,min=1,max=365"`
		Limit int `query:"limit" validate:"omitempty,min=1,max=50"`
	}
)

func (q *Query) Validate(validate *validator.Validate) error {
	if err := validate.Struct(q); err != nil {
		return err
	}
	if q.Days == 0 {
		q.Days = DefaultDays
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	return nil
}

// FillDays returns one entry per day in [from, to], using zero for days absent from counts.
func FillDays(counts []DailyCount, from, to time.Time) []DailyCount {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Day] += c.Count
	}
	from = truncateDay(from)
	to = truncateDay(to)

	series := make([]DailyCount, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		series = append(series, DailyCount{Day: key, Count: byDay[key]})
	}
	return series
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats t as used in DailyCount.
func DayKey(t time.Time) string { return t.UTC().Format(dayLayout) }
