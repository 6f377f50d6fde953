package finaid

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var ErrNoFinancialProfile = core.NewFieldError("financial_profile", "provide the family finances or save a financial profile first")

type (
	ProfileGetter interface {
		GetFinancialProfile(ctx context.Context, userID string) (user.FinancialProfile, error)
	}

	UniversityGetter interface {
		Get(ctx context.Context, idOrSlug string) (university.University, error)
	}

	Service struct {
		profiles     ProfileGetter
		universities UniversityGetter
		validate     *validator.Validate
	}
)

func NewService(profiles ProfileGetter, universities UniversityGetter, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(profiles, "profiles"),
		vala.IsNotNil(universities, "universities"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{profiles: profiles, universities: universities, validate: validate}
}

// ResolveInput validates the given input or, when nil, loads the user's financial profile.
func (svc *Service) ResolveInput(ctx context.Context, userID string, in *Input) (Input, error) {
	if in != nil {
		if err := in.Validate(svc.validate); err != nil {
			return Input{}, err
		}
		return *in, nil
	}
	if userID == "" {
		return Input{}, ErrNoFinancialProfile
	}
	fp, err := svc.profiles.GetFinancialProfile(ctx, userID)
	if err != nil {
		if errors.Cause(err) == user.ErrProfileNotFound {
			return Input{}, ErrNoFinancialProfile
		}
		return Input{}, errors.Wrap(err, "getting financial profile")
	}
	return InputFromProfile(fp), nil
}

func (svc *Service) EFC(ctx context.Context, userID string, in *Input) (EFCBreakdown, error) {
	input, err := svc.ResolveInput(ctx, userID, in)
	if err != nil {
		return EFCBreakdown{}, err
	}
	return EFC(input), nil
}

func (svc *Service) Estimate(ctx context.Context, userID, universityID string, in *Input) (Estimate, error) {
	input, err := svc.ResolveInput(ctx, userID, in)
	if err != nil {
		return Estimate{}, err
	}
	univ, err := svc.universities.Get(ctx, universityID)
	if err != nil {
		return Estimate{}, err
	}
	return EstimateFor(univ, input), nil
}
