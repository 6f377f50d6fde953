package university

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("university not found")
	ErrSlugExists    = errors.New("a university with this slug already exists")
	ErrNotSaved      = errors.New("university not in saved list")
	errCompareLength = fmt.Sprintf("between %d and %d universities can be compared", MinCompare, MaxCompare)

	NowFunc = time.Now // mockable
)

const (
	MinCompare = 2
	MaxCompare = 4

	suggestLimit    = 5
	suggestMinRatio = 0.5

	cacheKeyPrefix = "university:"
)

// Orderable fields mapped to their column.
var OrderingFields = map[string]string{
	"name":            "name",
	"state":           "state",
	"national_rank":   "national_rank",
	"tuition":         "tuition_in_state",
	"acceptance_rate": "acceptance_rate",
	"graduation_rate": "graduation_rate",
	"median_earnings": "median_earnings",
	"created_at":      "created_at",
}

type (
	GetFilter struct {
		ID   string
		Slug string
	}

	// NameRef is the minimal projection used for suggestions.
	NameRef struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
		Name string `json:"name"`
	}

	Repository interface {
		CreateUniversity(ctx context.Context, univ University) (University, error)
		GetUniversity(ctx context.Context, filter GetFilter) (University, error)
		GetUniversitiesByID(ctx context.Context, ids ...string) ([]University, error)
		// SearchUniversities returns a page of matching universities and the total before paging.
		SearchUniversities(ctx context.Context, filter *SearchFilter, ordering []core.DBOrdering, page core.Page) ([]University, int, error)
		ListUniversityNames(ctx context.Context) ([]NameRef, error)
		UpdateUniversity(ctx context.Context, univ University) (University, error)
		DeleteUniversity(ctx context.Context, id string) error
		SlugExists(ctx context.Context, slug string) (bool, error)

		SaveUniversity(ctx context.Context, saved SavedUniversity) (SavedUniversity, error)
		UnsaveUniversity(ctx context.Context, userID, universityID string) error
		ListSaved(ctx context.Context, userID string) ([]SavedUniversity, error)
		CountSaves(ctx context.Context, universityID string) (int, error)
	}

	Service struct {
		repo     Repository
		cache    core.Cache
		cacheTTL time.Duration
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, cache core.Cache, cacheTTL time.Duration, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(cache, "cache"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL, validate: validate, logger: logger}
}

func canEdit(actor user.User, univ University) bool {
	return actor.IsAdmin() || (univ.ClaimedBy != "" && univ.ClaimedBy == actor.ID)
}

func (svc *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := core.Slugify(name)
	if base == "" {
		base = "university"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := svc.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", errors.Wrap(err, "checking slug")
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (svc *Service) Create(ctx context.Context, actor user.User, attrs Attributes) (University, error) {
	if !actor.IsAdmin() {
		return University{}, core.ErrForbidden
	}
	if err := attrs.Validate(svc.validate); err != nil {
		return University{}, err
	}
	return svc.insert(ctx, attrs)
}

// Import inserts seed data without permission checks.
func (svc *Service) Import(ctx context.Context, attrs Attributes) (University, error) {
	if err := attrs.Validate(svc.validate); err != nil {
		return University{}, err
	}
	return svc.insert(ctx, attrs)
}

func (svc *Service) insert(ctx context.Context, attrs Attributes) (University, error) {
	slug, err := svc.uniqueSlug(ctx, attrs.Name)
	if err != nil {
		return University{}, err
	}
	now := NowFunc().UTC()
	univ := University{
		ID:         uuid.New().String(),
		Slug:       slug,
		Attributes: attrs,
		Region:     core.RegionOf(attrs.State),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateUniversity(ctx, univ)
}

func cacheKey(idOrSlug string) string {
	return cacheKeyPrefix + idOrSlug
}

// Get finds a university by ID or slug, going through the cache.
func (svc *Service) Get(ctx context.Context, idOrSlug string) (University, error) {
	idOrSlug = core.CleanString(idOrSlug)
	key := cacheKey(idOrSlug)

	if data, err := svc.cache.Get(ctx, key); err == nil {
		var univ University
		if err = json.Unmarshal(data, &univ); err == nil {
			return univ, nil
		}
		svc.logger.Warn("decoding cached university", err)
	} else if err != core.ErrCacheMiss {
		svc.logger.Warn("reading university cache", err)
	}

	filter := GetFilter{Slug: strings.ToLower(idOrSlug)}
	if _, err := uuid.Parse(idOrSlug); err == nil {
		filter = GetFilter{ID: idOrSlug}
	}
	univ, err := svc.repo.GetUniversity(ctx, filter)
	if err != nil {
		return University{}, err
	}

	if data, err := json.Marshal(univ); err == nil {
		if err = svc.cache.Set(ctx, key, data, svc.cacheTTL); err != nil {
			svc.logger.Warn("writing university cache", err)
		}
	}
	return univ, nil
}

func (svc *Service) invalidate(ctx context.Context, univ University) {
	if err := svc.cache.Delete(ctx, cacheKey(univ.ID), cacheKey(univ.Slug)); err != nil {
		svc.logger.Warn("invalidating university cache", err)
	}
}

func (svc *Service) Search(ctx context.Context, filter *SearchFilter, ordering []core.DBOrdering, page core.Page) ([]University, int, error) {
	if filter != nil {
		filter.Clean()
	}
	page.Clean()
	return svc.repo.SearchUniversities(ctx, filter, ordering, page)
}

// Suggest returns up to 5 universities whose name resembles q, best first.
func (svc *Service) Suggest(ctx context.Context, q string) ([]NameRef, error) {
	q = strings.ToLower(core.CleanString(q))
	if q == "" {
		return []NameRef{}, nil
	}
	names, err := svc.repo.ListUniversityNames(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing university names")
	}

	type scored struct {
		ref   NameRef
		ratio float64
	}
	qChars := strings.Split(q, "")
	candidates := make([]scored, 0, suggestLimit)
	for _, ref := range names {
		name := strings.ToLower(ref.Name)
		var ratio float64
		if strings.Contains(name, q) {
			ratio = 1
		} else {
			// compare against the name prefix of the same length, so partial input is not penalized
			nameChars := strings.Split(name, "")
			if len(nameChars) > len(qChars) {
				nameChars = nameChars[:len(qChars)]
			}
			ratio = difflib.NewMatcher(qChars, nameChars).Ratio()
		}
		if ratio >= suggestMinRatio {
			candidates = append(candidates, scored{ref: ref, ratio: ratio})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ratio != candidates[j].ratio {
			return candidates[i].ratio > candidates[j].ratio
		}
		return candidates[i].ref.Name < candidates[j].ref.Name
	})
	if len(candidates) > suggestLimit {
		candidates = candidates[:suggestLimit]
	}

	refs := make([]NameRef, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, c.ref)
	}
	return refs, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, attrs Attributes) (University, error) {
	univ, err := svc.repo.GetUniversity(ctx, GetFilter{ID: id})
	if err != nil {
		return University{}, err
	}
	if !canEdit(actor, univ) {
		return University{}, core.ErrForbidden
	}
	if err = attrs.Validate(svc.validate); err != nil {
		return University{}, err
	}

	oldSlug := univ.Slug
	if attrs.Name != univ.Name {
		if univ.Slug, err = svc.uniqueSlug(ctx, attrs.Name); err != nil {
			return University{}, err
		}
	}
	univ.Attributes = attrs
	univ.Region = core.RegionOf(attrs.State)
	univ.UpdatedAt = NowFunc().UTC()

	updated, err := svc.repo.UpdateUniversity(ctx, univ)
	if err != nil {
		return University{}, err
	}
	svc.invalidate(ctx, University{ID: univ.ID, Slug: oldSlug})
	svc.invalidate(ctx, updated)
	return updated, nil
}

// SetClaimedBy records the owner of an approved claim; an empty userID releases the university.
func (svc *Service) SetClaimedBy(ctx context.Context, id, userID string) (University, error) {
	univ, err := svc.repo.GetUniversity(ctx, GetFilter{ID: id})
	if err != nil {
		return University{}, err
	}
	univ.ClaimedBy = userID
	univ.UpdatedAt = NowFunc().UTC()
	if univ, err = svc.repo.UpdateUniversity(ctx, univ); err != nil {
		return University{}, err
	}
	svc.invalidate(ctx, univ)
	return univ, nil
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if !actor.IsAdmin() {
		return core.ErrForbidden
	}
	univ, err := svc.repo.GetUniversity(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteUniversity(ctx, id); err != nil {
		return err
	}
	svc.invalidate(ctx, univ)
	return nil
}

// Compare returns 2 to 4 universities side by side, flagging the best value of each attribute.
func (svc *Service) Compare(ctx context.Context, ids ...string) (Comparison, error) {
	ids = core.CleanStrings(ids)
	if len(ids) < MinCompare || len(ids) > MaxCompare {
		return Comparison{}, core.NewFieldError("id", errCompareLength)
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return Comparison{}, ErrNotFound
		}
	}

	found, err := svc.repo.GetUniversitiesByID(ctx, ids...)
	if err != nil {
		return Comparison{}, errors.Wrap(err, "getting universities")
	}
	byID := make(map[string]University, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	univs := make([]University, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return Comparison{}, ErrNotFound
		}
		univs = append(univs, u)
	}
	return compare(univs), nil
}

func (svc *Service) Save(ctx context.Context, userID, universityID, note string) (SavedUniversity, error) {
	univ, err := svc.Get(ctx, universityID)
	if err != nil {
		return SavedUniversity{}, err
	}
	saved := SavedUniversity{
		UserID:       userID,
		UniversityID: univ.ID,
		Note:         core.CleanString(note),
		CreatedAt:    NowFunc().UTC(),
		University:   univ,
	}
	return svc.repo.SaveUniversity(ctx, saved)
}

func (svc *Service) Unsave(ctx context.Context, userID, universityID string) error {
	return svc.repo.UnsaveUniversity(ctx, userID, universityID)
}

func (svc *Service) ListSaved(ctx context.Context, userID string) ([]SavedUniversity, error) {
	return svc.repo.ListSaved(ctx, userID)
}

func (svc *Service) SaveCount(ctx context.Context, universityID string) (int, error) {
	return svc.repo.CountSaves(ctx, universityID)
}
