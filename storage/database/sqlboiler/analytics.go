// Package boiledrepos holds the read models built on sqlboiler raw queries.
package boiledrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/Benouakrim/Academora-02-sub002/core/analytics"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
)

type analyticsRepository struct {
	exec boil.ContextExecutor
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(exec boil.ContextExecutor) analytics.Repository {
	return &analyticsRepository{exec: exec}
}

type totalsRow struct {
	Users             int `boil:"users"`
	ActiveUsers       int `boil:"active_users"`
	OnboardedUsers    int `boil:"onboarded_users"`
	Comments          int `boil:"comments"`
	Referrals         int `boil:"referrals"`
	SavedUniversities int `boil:"saved_universities"`
}

type statusCount struct {
	Status string `boil:"status"`
	Count  int    `boil:"count"`
}

func (repo *analyticsRepository) countByStatus(ctx context.Context, table string) (map[string]int, error) {
	var rows []statusCount
	q := `SELECT status, COUNT(*) AS count FROM ` + table + ` GROUP BY status`
	if err := queries.Raw(q).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "counting "+table+" by status")
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (repo *analyticsRepository) Totals(ctx context.Context, activeSince time.Time) (analytics.Totals, error) {
	var row totalsRow
	q := `SELECT
		(SELECT COUNT(*) FROM "user") AS users,
		(SELECT COUNT(*) FROM "user" WHERE last_seen >= $1) AS active_users,
		(SELECT COUNT(*) FROM "user" WHERE onboarding_completed) AS onboarded_users,
		(SELECT COUNT(*) FROM comment) AS comments,
		(SELECT COUNT(*) FROM referral) AS referrals,
		(SELECT COUNT(*) FROM saved_university) AS saved_universities`
	if err := queries.Raw(q, activeSince.UTC()).Bind(ctx, repo.exec, &row); err != nil {
		return analytics.Totals{}, errors.Wrap(err, "computing totals")
	}

	articles, err := repo.countByStatus(ctx, "article")
	if err != nil {
		return analytics.Totals{}, err
	}
	claims, err := repo.countByStatus(ctx, "claim")
	if err != nil {
		return analytics.Totals{}, err
	}
	return analytics.Totals{
		Users:             row.Users,
		ActiveUsers:       row.ActiveUsers,
		OnboardedUsers:    row.OnboardedUsers,
		ArticlesByStatus:  articles,
		Comments:          row.Comments,
		ClaimsByStatus:    claims,
		Referrals:         row.Referrals,
		SavedUniversities: row.SavedUniversities,
	}, nil
}

type articleViewsRow struct {
	ID        string `boil:"id"`
	Title     string `boil:"title"`
	Slug      string `boil:"slug"`
	ViewCount int    `boil:"view_count"`
}

func (repo *analyticsRepository) TopArticles(ctx context.Context, limit int) ([]analytics.ArticleViews, error) {
	var rows []articleViewsRow
	q := `SELECT id, title, slug, view_count FROM article WHERE status = $1 ORDER BY view_count DESC, title LIMIT $2`
	if err := queries.Raw(q, article.StatusPublished, limit).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "getting top articles")
	}
	top := make([]analytics.ArticleViews, 0, len(rows))
	for _, r := range rows {
		top = append(top, analytics.ArticleViews(r))
	}
	return top, nil
}

type universitySavesRow struct {
	ID    string `boil:"id"`
	Name  string `boil:"name"`
	Slug  string `boil:"slug"`
	Saves int    `boil:"saves"`
}

func (repo *analyticsRepository) MostSavedUniversities(ctx context.Context, limit int) ([]analytics.UniversitySaves, error) {
	var rows []universitySavesRow
	q := `SELECT u.id, u.name, u.slug, COUNT(*) AS saves
		FROM saved_university s JOIN university u ON u.id = s.university_id
		GROUP BY u.id, u.name, u.slug ORDER BY saves DESC, u.name LIMIT $1`
	if err := queries.Raw(q, limit).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "getting most saved universities")
	}
	saves := make([]analytics.UniversitySaves, 0, len(rows))
	for _, r := range rows {
		saves = append(saves, analytics.UniversitySaves(r))
	}
	return saves, nil
}

type dailyCountRow struct {
	Day   string `boil:"day"`
	Count int    `boil:"count"`
}

func (repo *analyticsRepository) SignupsPerDay(ctx context.Context, since time.Time) ([]analytics.DailyCount, error) {
	var rows []dailyCountRow
	q := `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS count
		FROM "user" WHERE created_at >= $1 GROUP BY day ORDER BY day`
	if err := queries.Raw(q, since.UTC()).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "counting signups")
	}
	counts := make([]analytics.DailyCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, analytics.DailyCount(r))
	}
	return counts, nil
}

type personaCountRow struct {
	Persona string `boil:"persona"`
	Count   int    `boil:"count"`
}

func (repo *analyticsRepository) PersonaDistribution(ctx context.Context) ([]analytics.PersonaCount, error) {
	var rows []personaCountRow
	q := `SELECT persona, COUNT(*) AS count FROM "user" WHERE persona <> '' GROUP BY persona ORDER BY count DESC, persona`
	if err := queries.Raw(q).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "counting personas")
	}
	counts := make([]analytics.PersonaCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, analytics.PersonaCount(r))
	}
	return counts, nil
}
