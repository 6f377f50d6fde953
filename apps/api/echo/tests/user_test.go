package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Benouakrim/Academora-02-sub002/apps/api/echo"
	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

func Test_auth(t *testing.T) {
	env.Reset()

	active := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	naughty := testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog@test.com", nil, false)

	foreignClaims := NewClaims(env.Conf, user.Identity{Subject: active.ExternalID, Email: active.Email})
	foreignClaims.Issuer = "someone-else"
	foreignToken, err := GenerateToken(env.Conf, foreignClaims)
	require.NoError(t, err)

	expiredClaims := NewClaims(env.Conf, user.Identity{Subject: active.ExternalID, Email: active.Email})
	expiredClaims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expiredToken, err := GenerateToken(env.Conf, expiredClaims)
	require.NoError(t, err)

	runHTTPTests(t, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/users/me",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "garbage token",
			method:   http.MethodGet,
			path:     "/v1/users/me",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errInvalidToken),
		},
		{
			name:     "expired token",
			method:   http.MethodGet,
			path:     "/v1/users/me",
			token:    expiredToken,
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errInvalidToken),
		},
		{
			name:     "foreign issuer",
			method:   http.MethodGet,
			path:     "/v1/users/me",
			token:    foreignToken,
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errTokenNotForApp),
		},
		{
			name:     "deactivated account",
			method:   http.MethodGet,
			path:     "/v1/users/me",
			token:    getToken(t, naughty),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errDeactivated),
		},
	})
}

func Test_auth_provisionsOnFirstSight(t *testing.T) {
	env.Reset()

	ident := user.Identity{Subject: "idp|fresh", Email: "Fresh@Test.com", Name: "Fresh Face"}
	token := getIdentityToken(t, ident)

	rec := serve(http.MethodGet, "/v1/users/me", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me user.User
	decode(t, rec, &me)
	assert.NotEmpty(t, me.ID)
	assert.Equal(t, "fresh@test.com", me.Email)
	assert.Equal(t, "Fresh Face", me.Name)
	assert.Equal(t, user.AccountStudent, me.AccountType)
	assert.Empty(t, me.Roles)

	// the second request resolves to the same user
	rec = serve(http.MethodGet, "/v1/users/me", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var again user.User
	decode(t, rec, &again)
	assert.Equal(t, me.ID, again.ID)
}

func Test_userApi_updateMe(t *testing.T) {
	env.Reset()

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	token := getToken(t, usr)

	rec := serve(http.MethodPut, "/v1/users/me", token, []byte(`{"name":"Awe Some","account_type":"parent"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.User
	decode(t, rec, &updated)
	assert.Equal(t, "Awe Some", updated.Name)
	assert.Equal(t, user.AccountParent, updated.AccountType)

	runHTTPTests(t, []httpTest{
		{
			name:     "roles are admin only",
			method:   http.MethodPut,
			path:     "/v1/users/me",
			body:     []byte(`{"roles":["admin:"]}`),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errPermission),
		},
		{
			name:     "institution accounts come from claims",
			method:   http.MethodPut,
			path:     "/v1/users/me",
			body:     []byte(`{"account_type":"institution"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"account_type":"only an admin can change an institution account"}`),
		},
		{
			name:     "unknown account type",
			method:   http.MethodPut,
			path:     "/v1/users/me",
			body:     []byte(`{"account_type":"alien"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"account_type":"invalid account type"}`),
		},
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env.Reset()

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)

	rec := serve(http.MethodPost, "/v1/users/me/token-refresh", getToken(t, usr))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TokenResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)

	// the refreshed token keeps working
	rec = serve(http.MethodGet, "/v1/users/me", resp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// past the refresh window
	stale := NewClaims(env.Conf, user.Identity{Subject: usr.ExternalID, Email: usr.Email}, time.Now().Add(-5*time.Hour).Unix())
	staleToken, err := GenerateToken(env.Conf, stale)
	require.NoError(t, err)
	rec = serve(http.MethodPost, "/v1/users/me/token-refresh", staleToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_userApi_privacy(t *testing.T) {
	env.Reset()

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	token := getToken(t, usr)

	runHTTPTests(t, []httpTest{
		{
			name:     "partial update",
			method:   http.MethodPut,
			path:     "/v1/users/me/privacy",
			body:     []byte(`{"profile_visibility":"PUBLIC","email_notifications":false}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, user.PrivacySettings{
				ProfileVisibility:     user.VisibilityPublic,
				ShowSavedUniversities: false,
				EmailNotifications:    false,
				AllowAnalytics:        true,
			}),
		},
		{
			name:     "invalid visibility",
			method:   http.MethodPut,
			path:     "/v1/users/me/privacy",
			body:     []byte(`{"profile_visibility":"friends"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	})
}

func Test_userApi_profiles(t *testing.T) {
	env.Reset()

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	token := getToken(t, usr)

	rec := serve(http.MethodGet, "/v1/users/me/academic-profile", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodPut, "/v1/users/me/academic-profile", token, []byte(`{"gpa":3.8,"sat":1450,"intended_majors":[" Computer Science "]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(http.MethodGet, "/v1/users/me/academic-profile", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var ap user.AcademicProfile
	decode(t, rec, &ap)
	assert.Equal(t, usr.ID, ap.UserID)
	require.NotNil(t, ap.GPA)
	assert.Equal(t, 3.8, *ap.GPA)
	assert.Equal(t, []string{"computer science"}, ap.IntendedMajors)

	rec = serve(http.MethodPut, "/v1/users/me/academic-profile", token, []byte(`{"gpa":4.5,"act":40}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fldErrs map[string]string
	decode(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "gpa")
	assert.Contains(t, fldErrs, "act")

	rec = serve(http.MethodPut, "/v1/users/me/financial-profile", token, []byte(`{"household_income":85000,"state":"ny"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fp user.FinancialProfile
	decode(t, rec, &fp)
	assert.Equal(t, 1, fp.HouseholdSize)
	assert.Equal(t, 1, fp.NumberInCollege)
	assert.Equal(t, user.Dependent, fp.Dependency)
	assert.Equal(t, "NY", fp.State)

	rec = serve(http.MethodPut, "/v1/users/me/financial-profile", token, []byte(`{"household_size":2,"number_in_college":3}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fldErrs = nil
	decode(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "number_in_college")
}

func Test_userApi_onboarding(t *testing.T) {
	env.Reset()

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	token := getToken(t, usr)

	runHTTPTests(t, []httpTest{
		{
			name:     "complete without persona nor goals",
			method:   http.MethodPut,
			path:     "/v1/users/me/onboarding",
			body:     []byte(`{"answers":{"grade_level":"12"},"complete":true}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"persona": "persona is required to complete onboarding",
				"goals": "at least one goal is required to complete onboarding"
			}`),
		},
		{
			name:     "budget without home state",
			method:   http.MethodPut,
			path:     "/v1/users/me/onboarding",
			body:     []byte(`{"answers":{"budget":30000}}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"home_state":"budget must be set together with a home state"}`),
		},
		{
			name:     "unknown persona",
			method:   http.MethodPut,
			path:     "/v1/users/me/onboarding",
			body:     []byte(`{"answers":{"persona":"wizard"}}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	})

	// partial save then completion merges answers
	rec := serve(http.MethodPut, "/v1/users/me/onboarding", token, []byte(`{"answers":{"persona":"parent","home_state":"CA","budget":25000}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me user.User
	decode(t, rec, &me)
	assert.False(t, me.OnboardingCompleted)
	assert.Equal(t, "parent", me.Persona)

	rec = serve(http.MethodPut, "/v1/users/me/onboarding", token, []byte(`{"answers":{"goals":["affordability","location"]},"complete":true}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me = user.User{}
	decode(t, rec, &me)
	assert.True(t, me.OnboardingCompleted)
	assert.Equal(t, "parent", me.Persona)
	assert.Equal(t, "affordability", me.PrimaryGoal)

	// the budget seeded the financial profile
	fp, err := env.Users.GetFinancialProfile(context.Background(), usr.ID)
	require.NoError(t, err)
	require.NotNil(t, fp.AnnualBudget)
	assert.Equal(t, 25000.0, *fp.AnnualBudget)
	assert.Equal(t, "CA", fp.State)
}

func Test_userApi_userQuery(t *testing.T) {
	env.Reset()

	path := func(search, ordering string, isActive string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != "" {
			v.Add("is_active", isActive)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}

	now := time.Now()
	usr1 := testutil.CreateUser(t, env.UserRepo, "User", "awe@test.com", nil, true, now.Add(1*time.Hour))
	usr2 := testutil.CreateUser(t, env.UserRepo, "King", "king@test.com", nil, true, now.Add(2*time.Hour))
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.com", []string{user.RoleAdmin}, true, now.Add(3*time.Hour))
	moderator := testutil.CreateUser(t, env.UserRepo, "Moderator", "mod@test.com", []string{user.RoleAdminModerator}, true, now.Add(4*time.Hour))
	naughty := testutil.CreateUser(t, env.UserRepo, "N Dog", "ndog@test.com", nil, false, now.Add(5*time.Hour))

	adminToken := getToken(t, admin)
	page := func(total int, users ...user.User) []byte {
		if users == nil {
			users = []user.User{}
		}
		return marshallObj(t, core.PageResult{Items: users, Total: total, Page: 1, PageSize: core.DefaultPageSize})
	}

	runHTTPTests(t, []httpTest{
		{
			name:     "non admin",
			method:   http.MethodGet,
			path:     path("", "", ""),
			token:    getToken(t, usr1),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errPermission),
		},
		{
			name:     "all newest first",
			method:   http.MethodGet,
			path:     path("", "", ""),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: page(5, naughty, moderator, admin, usr2, usr1),
		},
		{
			name:     "search",
			method:   http.MethodGet,
			path:     path("KING", "", ""),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: page(1, usr2),
		},
		{
			name:     "ordering by name",
			method:   http.MethodGet,
			path:     path("", "name", "true"),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: page(4, admin, usr2, moderator, usr1),
		},
		{
			name:     "inactive",
			method:   http.MethodGet,
			path:     path("", "", "false"),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: page(1, naughty),
		},
		{
			name:     "by role",
			method:   http.MethodGet,
			path:     path("", "", "", user.RoleAdminModerator),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: page(1, moderator),
		},
		{
			name:     "bad is_active",
			method:   http.MethodGet,
			path:     path("", "", "maybe"),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad page",
			method:   http.MethodGet,
			path:     "/v1/users?page=two",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"page":"page must be an integer"}`),
		},
	})
}

func Test_userApi_adminManagement(t *testing.T) {
	env.Reset()

	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@test.com", []string{user.RoleAdminOwner}, true)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.com", []string{user.RoleAdmin}, true)
	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	adminToken := getToken(t, admin)

	runHTTPTests(t, []httpTest{
		{
			name:     "roles list",
			method:   http.MethodGet,
			path:     "/v1/users/roles",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, user.Roles),
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/v1/users/" + usr.ID,
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, usr),
		},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/users/not-a-uuid",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
		{
			name:     "grant above own rank",
			method:   http.MethodPut,
			path:     "/v1/users/" + usr.ID,
			body:     []byte(`{"roles":["admin:owner"]}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"roles":"you cannot grant a role above your own"}`),
		},
		{
			name:     "modify a higher ranked admin",
			method:   http.MethodPut,
			path:     "/v1/users/" + owner.ID,
			body:     []byte(`{"is_active":false}`),
			token:    adminToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errPermission),
		},
		{
			name:     "self deletion",
			method:   http.MethodDelete,
			path:     "/v1/users/" + admin.ID,
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error":"you cannot delete your own account"}`),
		},
	})

	rec := serve(http.MethodPut, "/v1/users/"+usr.ID, adminToken, []byte(`{"is_active":false,"roles":["admin:"]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.User
	decode(t, rec, &updated)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{user.RoleAdmin}, updated.Roles)

	rec = serve(http.MethodDelete, "/v1/users?id="+usr.ID, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := env.Users.GetByID(context.Background(), usr.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

// jwt claims carry the identity provider subject, never the local ID.
func Test_claimsIdentity(t *testing.T) {
	claims := NewClaims(env.Conf, user.Identity{Subject: "idp|42", Email: "x@test.com", Name: "X"})
	assert.Equal(t, "idp|42", claims.Subject)
	assert.Equal(t, env.Conf.Server.JWTIssuer, claims.Issuer)
	assert.True(t, claims.ExpiresAt > time.Now().Unix())
	assert.Equal(t, claims.IssuedAt, claims.OrigIssuedAt)

	token, err := GenerateToken(env.Conf, claims)
	require.NoError(t, err)
	parsed := new(Claims)
	_, err = jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (interface{}, error) { return []byte(env.Conf.SecretKey), nil })
	require.NoError(t, err)
	assert.Equal(t, claims.Identity(), parsed.Identity())
}
