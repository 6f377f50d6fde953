package university_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	cachesvc "github.com/Benouakrim/Academora-02-sub002/services/cache"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

var ctx = context.Background()

// newCachedService returns a service backed by the in-process cache.
func newCachedService(t *testing.T, env *testutil.App) *university.Service {
	cache, err := cachesvc.NewMemoryCache(time.Minute)
	require.NoError(t, err)
	return university.NewService(env.UniversityRepo, cache, time.Minute, env.Validate, env.Logger)
}

func TestService_Suggest(t *testing.T) {
	env := testutil.NewApp()
	for _, name := range []string{"Stanford University", "Stetson University", "Harbor College", "Williams College"} {
		testutil.CreateUniversity(t, env.Universities, university.Attributes{Name: name})
	}

	tests := []struct {
		q    string
		want []string
	}{
		{q: "", want: []string{}},
		{q: "college", want: []string{"Harbor College", "Williams College"}},
		{q: "Stanfrod", want: []string{"Stanford University"}},
		{q: "zzzz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			refs, err := env.Universities.Suggest(ctx, tt.q)
			require.NoError(t, err)
			names := make([]string, 0, len(refs))
			for _, ref := range refs {
				names = append(names, ref.Name)
			}
			if len(tt.want) == 0 {
				assert.Empty(t, names)
				return
			}
			assert.Equal(t, tt.want, names[:len(tt.want)])
		})
	}
}

func TestService_cacheInvalidation(t *testing.T) {
	env := testutil.NewApp()
	svc := newCachedService(t, env)
	admin := user.User{ID: "admin", Roles: []string{user.RoleAdmin}}

	univ, err := svc.Create(ctx, admin, university.Attributes{Name: "Harbor College", State: "ME"})
	require.NoError(t, err)
	assert.Equal(t, "harbor-college", univ.Slug)

	// warm the cache under both keys
	_, err = svc.Get(ctx, univ.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, univ.Slug)
	require.NoError(t, err)

	attrs := univ.Attributes
	attrs.Name = "Harbour College"
	updated, err := svc.Update(ctx, admin, univ.ID, attrs)
	require.NoError(t, err)
	assert.Equal(t, "harbour-college", updated.Slug)

	got, err := svc.Get(ctx, univ.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour College", got.Name)
	_, err = svc.Get(ctx, "harbor-college")
	assert.Equal(t, university.ErrNotFound, err)

	owner := "owner-id"
	_, err = svc.SetClaimedBy(ctx, univ.ID, owner)
	require.NoError(t, err)
	got, err = svc.Get(ctx, updated.Slug)
	require.NoError(t, err)
	assert.Equal(t, owner, got.ClaimedBy)

	require.NoError(t, svc.Delete(ctx, admin, univ.ID))
	_, err = svc.Get(ctx, univ.ID)
	assert.Equal(t, university.ErrNotFound, err)
}

func TestService_withoutCache(t *testing.T) {
	env := testutil.NewApp()
	var svc *university.Service
	require.NotPanics(t, func() {
		svc = university.NewService(env.UniversityRepo, cachesvc.NewNoopCache(), time.Minute, env.Validate, env.Logger)
	})
	admin := user.User{ID: "admin", Roles: []string{user.RoleAdmin}}

	univ, err := svc.Create(ctx, admin, university.Attributes{Name: "Harbor College"})
	require.NoError(t, err)
	got, err := svc.Get(ctx, univ.Slug)
	require.NoError(t, err)
	assert.Equal(t, univ.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, admin, univ.ID))
	_, err = svc.Get(ctx, univ.ID)
	assert.Equal(t, university.ErrNotFound, err)
}

func TestService_permissions(t *testing.T) {
	env := testutil.NewApp()
	admin := user.User{ID: "admin", Roles: []string{user.RoleAdmin}}
	owner := user.User{ID: "owner"}
	stranger := user.User{ID: "stranger"}

	_, err := env.Universities.Create(ctx, stranger, university.Attributes{Name: "Nope"})
	assert.Equal(t, core.ErrForbidden, err)

	univ, err := env.Universities.Create(ctx, admin, university.Attributes{Name: "Harbor College"})
	require.NoError(t, err)
	dup, err := env.Universities.Create(ctx, admin, university.Attributes{Name: "Harbor College"})
	require.NoError(t, err)
	assert.Equal(t, "harbor-college-2", dup.Slug)

	_, err = env.Universities.Update(ctx, owner, univ.ID, univ.Attributes)
	assert.Equal(t, core.ErrForbidden, err)
	_, err = env.Universities.SetClaimedBy(ctx, univ.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.Universities.Update(ctx, owner, univ.ID, univ.Attributes)
	assert.NoError(t, err)

	assert.Equal(t, core.ErrForbidden, env.Universities.Delete(ctx, owner, univ.ID))
}

func TestService_Compare(t *testing.T) {
	env := testutil.NewApp()
	cheap := testutil.CreateUniversity(t, env.Universities, university.Attributes{Name: "Cheap U", TuitionInState: 9000, GraduationRate: floatPtr(70)})
	pricey := testutil.CreateUniversity(t, env.Universities, university.Attributes{Name: "Pricey U", TuitionInState: 59000, GraduationRate: floatPtr(95)})

	_, err := env.Universities.Compare(ctx, cheap.ID)
	assert.Error(t, err)
	_, err = env.Universities.Compare(ctx, cheap.ID, "not-an-id")
	assert.Equal(t, university.ErrNotFound, err)

	cmp, err := env.Universities.Compare(ctx, pricey.ID, cheap.ID)
	require.NoError(t, err)
	require.Len(t, cmp.Universities, 2)
	assert.Equal(t, pricey.ID, cmp.Universities[0].ID, "the requested order is kept")

	best := make(map[string]string)
	for _, attr := range cmp.Attributes {
		for _, v := range attr.Values {
			if v.Best {
				best[attr.Name] = v.UniversityID
			}
		}
	}
	assert.Equal(t, cheap.ID, best["tuition_in_state"])
	assert.Equal(t, pricey.ID, best["graduation_rate"])
}

func TestService_saved(t *testing.T) {
	env := testutil.NewApp()
	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	univ := testutil.CreateUniversity(t, env.Universities, university.Attributes{Name: "Harbor College"})

	saved, err := env.Universities.Save(ctx, usr.ID, univ.Slug, "  safety school ")
	require.NoError(t, err)
	assert.Equal(t, univ.ID, saved.UniversityID)
	assert.Equal(t, "safety school", saved.Note)

	n, err := env.Universities.SaveCount(ctx, univ.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := env.Universities.ListSaved(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Harbor College", list[0].University.Name)

	require.NoError(t, env.Universities.Unsave(ctx, usr.ID, univ.ID))
	assert.Error(t, env.Universities.Unsave(ctx, usr.ID, univ.ID))

	_, err = env.Universities.Save(ctx, usr.ID, "nowhere", "")
	assert.Equal(t, university.ErrNotFound, err)
}

func floatPtr(f float64) *float64 { return &f }
