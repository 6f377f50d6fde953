package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/Benouakrim/Academora-02-sub002/core/analytics"
)

type analyticsRepository struct {
	db *DB
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(db *DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

func (repo *analyticsRepository) Totals(ctx context.Context, activeSince time.Time) (analytics.Totals, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	t := analytics.Totals{
		Users:             len(repo.db.users),
		ArticlesByStatus:  make(map[string]int),
		Comments:          len(repo.db.comments),
		ClaimsByStatus:    make(map[string]int),
		Referrals:         len(repo.db.referrals),
		SavedUniversities: len(repo.db.saved),
	}
	for _, usr := range repo.db.users {
		if !usr.LastSeen.IsZero() && !usr.LastSeen.Before(activeSince) {
			t.ActiveUsers++
		}
		if usr.OnboardingCompleted {
			t.OnboardedUsers++
		}
	}
	for _, a := range repo.db.articles {
		t.ArticlesByStatus[a.Status]++
	}
	for _, c := range repo.db.claims {
		t.ClaimsByStatus[c.Status]++
	}
	return t, nil
}

func (repo *analyticsRepository) TopArticles(ctx context.Context, limit int) ([]analytics.ArticleViews, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	top := make([]analytics.ArticleViews, 0)
	for _, a := range repo.db.articles {
		if a.IsPublished() {
			top = append(top, analytics.ArticleViews{ID: a.ID, Title: a.Title, Slug: a.Slug, ViewCount: a.ViewCount})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].ViewCount != top[j].ViewCount {
			return top[i].ViewCount > top[j].ViewCount
		}
		return top[i].Title < top[j].Title
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (repo *analyticsRepository) MostSavedUniversities(ctx context.Context, limit int) ([]analytics.UniversitySaves, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[string]int)
	for key := range repo.db.saved {
		counts[key.universityID]++
	}
	saves := make([]analytics.UniversitySaves, 0, len(counts))
	for id, n := range counts {
		u := repo.db.univs[id]
		saves = append(saves, analytics.UniversitySaves{ID: id, Name: u.Name, Slug: u.Slug, Saves: n})
	}
	sort.Slice(saves, func(i, j int) bool {
		if saves[i].Saves != saves[j].Saves {
			return saves[i].Saves > saves[j].Saves
		}
		return saves[i].Name < saves[j].Name
	})
	if len(saves) > limit {
		saves = saves[:limit]
	}
	return saves, nil
}

func (repo *analyticsRepository) SignupsPerDay(ctx context.Context, since time.Time) ([]analytics.DailyCount, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	byDay := make(map[string]int)
	for _, usr := range repo.db.users {
		if !usr.CreatedAt.Before(since) {
			byDay[analytics.DayKey(usr.CreatedAt)]++
		}
	}
	counts := make([]analytics.DailyCount, 0, len(byDay))
	for day, n := range byDay {
		counts = append(counts, analytics.DailyCount{Day: day, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Day < counts[j].Day })
	return counts, nil
}

func (repo *analyticsRepository) PersonaDistribution(ctx context.Context) ([]analytics.PersonaCount, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	byPersona := make(map[string]int)
	for _, usr := range repo.db.users {
		if usr.Persona != "" {
			byPersona[usr.Persona]++
		}
	}
	counts := make([]analytics.PersonaCount, 0, len(byPersona))
	for p, n := range byPersona {
		counts = append(counts, analytics.PersonaCount{Persona: p, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Persona < counts[j].Persona
	})
	return counts, nil
}
