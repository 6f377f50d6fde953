// Package analytics aggregates platform usage for the admin dashboard.
package analytics

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		// Totals counts users seen since activeSince as active.
		Totals(ctx context.Context, activeSince time.Time) (Totals, error)
		TopArticles(ctx context.Context, limit int) ([]ArticleViews, error)
		MostSavedUniversities(ctx context.Context, limit int) ([]UniversitySaves, error)
		// SignupsPerDay may omit days without signups.
		SignupsPerDay(ctx context.Context, since time.Time) ([]DailyCount, error)
		PersonaDistribution(ctx context.Context) ([]PersonaCount, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Dashboard(ctx context.Context, actor user.User, q Query) (Dashboard, error) {
	if !actor.IsAdmin() {
		return Dashboard{}, core.ErrForbidden
	}
	if err := q.Validate(svc.validate); err != nil {
		return Dashboard{}, err
	}
	now := NowFunc().UTC()

	totals, err := svc.repo.Totals(ctx, now.Add(-ActiveWindow))
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "counting totals")
	}
	if totals.Users > 0 {
		rate := float64(totals.OnboardedUsers) / float64(totals.Users) * 100
		totals.OnboardingCompletionRate = math.Round(rate*10) / 10
	}

	top, err := svc.repo.TopArticles(ctx, q.Limit)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "getting top articles")
	}
	saved, err := svc.repo.MostSavedUniversities(ctx, q.Limit)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "getting most saved universities")
	}
	from := truncateDay(now).AddDate(0, 0, -(q.Days - 1))
	signups, err := svc.repo.SignupsPerDay(ctx, from)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "counting signups")
	}
	personas, err := svc.repo.PersonaDistribution(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "counting personas")
	}

	return Dashboard{
		GeneratedAt:   now,
		Days:          q.Days,
		Totals:        totals,
		TopArticles:   top,
		MostSaved:     saved,
		SignupsPerDay: FillDays(signups, from, now),
		Personas:      personas,
	}, nil
}
