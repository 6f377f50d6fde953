package match

import (
	"context"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

// maxCandidates bounds how many search results are scored by Rank.
const maxCandidates = 1000

type (
	SnapshotGetter interface {
		Snapshot(ctx context.Context, id string) (user.Snapshot, error)
	}

	UniversitySource interface {
		Get(ctx context.Context, idOrSlug string) (university.University, error)
		Search(ctx context.Context, filter *university.SearchFilter, ordering []core.DBOrdering, page core.Page) ([]university.University, int, error)
	}

	// Options select the weights and precision of a scoring request.
	// Explicit Weights win over Preset; both empty means DefaultPreset.
	Options struct {
		Weights   Weights `json:"weights"`
		Preset    string  `json:"preset"`
		Precision string  `json:"precision"`
	}

	ScoreRequest struct {
		UniversityID string `json:"university_id"`
		Options
	}

	RankRequest struct {
		Filter university.SearchFilter `json:"filter"`
		Page   core.Page               `json:"page"`
		Options
	}

	RankResult struct {
		core.PageResult
		Weights   Weights `json:"weights"`
		Precision string  `json:"precision"`
	}

	Service struct {
		users        SnapshotGetter
		universities UniversitySource
		logger       core.Logger

		mu      sync.RWMutex
		presets map[string]Preset
	}
)

func NewService(users SnapshotGetter, universities UniversitySource, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(universities, "universities"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{users: users, universities: universities, logger: logger, presets: DefaultPresets()}
}

// LoadPresets merges presets read from YAML over the current ones.
func (svc *Service) LoadPresets(data []byte) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	presets, err := ParsePresets(data, svc.presets)
	if err != nil {
		return err
	}
	svc.presets = presets
	return nil
}

func (svc *Service) Presets() []Preset {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return SortedPresets(svc.presets)
}

// Resolve returns the normalized weights and precision for opts.
func (svc *Service) Resolve(opts Options) (Weights, string, error) {
	precision := core.CleanString(opts.Precision, true /* lower */)
	switch precision {
	case "":
		precision = PrecisionBasic
	case PrecisionBasic, PrecisionPrecise:
	default:
		return nil, "", core.NewFieldError("precision", "precision must be one of basic, precise")
	}

	if len(opts.Weights) > 0 {
		w, err := opts.Weights.Normalize()
		if err != nil {
			return nil, "", err
		}
		return w, precision, nil
	}

	name := core.CleanString(opts.Preset, true /* lower */)
	if name == "" {
		name = DefaultPreset
	}
	svc.mu.RLock()
	preset, ok := svc.presets[name]
	svc.mu.RUnlock()
	if !ok {
		return nil, "", core.NewFieldError("preset", "unknown preset")
	}
	w, err := preset.Weights.Normalize()
	if err != nil {
		return nil, "", err
	}
	return w, precision, nil
}

func (svc *Service) profile(ctx context.Context, userID string) (Profile, error) {
	snap, err := svc.users.Snapshot(ctx, userID)
	if err != nil {
		return Profile{}, errors.Wrap(err, "getting user snapshot")
	}
	return ProfileFromSnapshot(snap), nil
}

func (svc *Service) Score(ctx context.Context, userID string, req ScoreRequest) (Result, error) {
	weights, precision, err := svc.Resolve(req.Options)
	if err != nil {
		return Result{}, err
	}
	if req.UniversityID == "" {
		return Result{}, core.NewFieldError("university_id", "this field is required")
	}
	univ, err := svc.universities.Get(ctx, req.UniversityID)
	if err != nil {
		return Result{}, err
	}
	p, err := svc.profile(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	return Score(univ, p, weights, precision), nil
}

// Rank scores the universities matching the filter for the user and returns one page of the ranking.
func (svc *Service) Rank(ctx context.Context, userID string, req RankRequest) (RankResult, error) {
	weights, precision, err := svc.Resolve(req.Options)
	if err != nil {
		return RankResult{}, err
	}
	p, err := svc.profile(ctx, userID)
	if err != nil {
		return RankResult{}, err
	}

	candidates, err := svc.candidates(ctx, &req.Filter)
	if err != nil {
		return RankResult{}, err
	}
	results := Rank(candidates, p, weights, precision)

	page := req.Page
	page.Clean()
	start, end := page.Bounds(len(results))
	return RankResult{
		PageResult: core.PageResult{
			Items:    results[start:end],
			Total:    len(results),
			Page:     page.Number,
			PageSize: page.Size,
		},
		Weights:   weights,
		Precision: precision,
	}, nil
}

func (svc *Service) candidates(ctx context.Context, filter *university.SearchFilter) ([]university.University, error) {
	var all []university.University
	page := core.Page{Number: 1, Size: core.MaxPageSize}
	for {
		univs, total, err := svc.universities.Search(ctx, filter, nil, page)
		if err != nil {
			return nil, errors.Wrap(err, "searching universities")
		}
		all = append(all, univs...)
		if len(univs) == 0 || len(all) >= total {
			break
		}
		if len(all) >= maxCandidates {
			svc.logger.Warn("match.Rank: candidate list truncated")
			all = all[:maxCandidates]
			break
		}
		page.Number++
	}
	return all, nil
}
