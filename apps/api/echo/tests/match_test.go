package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core/finaid"
	"github.com/Benouakrim/Academora-02-sub002/core/match"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

func Test_matchApi_presets(t *testing.T) {
	rec := serve(http.MethodGet, "/v1/match/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var presets []match.Preset
	decode(t, rec, &presets)
	require.NotEmpty(t, presets)
	assert.Equal(t, match.DefaultPreset, presets[0].Name)
	for _, p := range presets {
		var sum float64
		for _, w := range p.Weights {
			sum += w
		}
		assert.InDelta(t, 100, sum, 0.001, p.Name)
	}
}

func Test_matchApi_score(t *testing.T) {
	env.Reset()
	_, _, williams := seedUniversities(t)

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	token := getToken(t, usr)

	runHTTPTests(t, []httpTest{
		{
			name:     "anonymous",
			method:   http.MethodPost,
			path:     "/v1/match/score",
			body:     marshallObj(t, match.ScoreRequest{UniversityID: williams.ID}),
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "missing university",
			method:   http.MethodPost,
			path:     "/v1/match/score",
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"university_id":"this field is required"}`),
		},
		{
			name:     "unknown university",
			method:   http.MethodPost,
			path:     "/v1/match/score",
			body:     []byte(`{"university_id":"nowhere-u"}`),
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown preset",
			method:   http.MethodPost,
			path:     "/v1/match/score",
			body:     []byte(`{"university_id":"` + williams.ID + `","preset":"vibes"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"preset":"unknown preset"}`),
		},
		{
			name:     "bad precision",
			method:   http.MethodPost,
			path:     "/v1/match/score",
			body:     []byte(`{"university_id":"` + williams.ID + `","precision":"exact"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"precision":"precision must be one of basic, precise"}`),
		},
		{
			name:     "bad weights",
			method:   http.MethodPost,
			path:     "/v1/match/score",
			body:     []byte(`{"university_id":"` + williams.ID + `","weights":{"academic":-1,"vibes":3}}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"weights.academic":"weight cannot be negative","weights.vibes":"unknown category"}`),
		},
	})

	// without any profile every category is neutral (basic) or excluded (precise)
	for _, precision := range []string{match.PrecisionBasic, match.PrecisionPrecise} {
		rec := serve(http.MethodPost, "/v1/match/score", token,
			[]byte(`{"university_id":"`+williams.Slug+`","precision":"`+precision+`"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res match.Result
		decode(t, rec, &res)
		assert.Equal(t, williams.ID, res.UniversityID)
		assert.Equal(t, precision, res.Precision)
		assert.Equal(t, float64(match.NeutralScore), res.Overall)
		if precision == match.PrecisionPrecise {
			assert.ElementsMatch(t, match.Categories, res.Excluded)
			assert.Empty(t, res.Categories)
		} else {
			assert.Empty(t, res.Excluded)
			assert.Len(t, res.Categories, len(match.Categories))
		}
	}
}

func Test_matchApi_rank(t *testing.T) {
	env.Reset()
	stanford, berkeley, _ := seedUniversities(t)

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	token := getToken(t, usr)

	rec := serve(http.MethodPut, "/v1/users/me/academic-profile", token, []byte(`{"gpa":3.9,"sat":1540}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(http.MethodPost, "/v1/match/rank", token, []byte(`{"filter":{"state":["CA"]},"preset":"academic_focused","precision":"precise"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Items     []match.Result `json:"items"`
		Total     int            `json:"total"`
		Weights   match.Weights  `json:"weights"`
		Precision string         `json:"precision"`
	}
	decode(t, rec, &res)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, match.PrecisionPrecise, res.Precision)
	assert.Equal(t, 40.0, res.Weights[match.Academic])

	ids := []string{res.Items[0].UniversityID, res.Items[1].UniversityID}
	assert.ElementsMatch(t, []string{stanford.ID, berkeley.ID}, ids)
	assert.GreaterOrEqual(t, res.Items[0].Overall, res.Items[1].Overall)
	for _, item := range res.Items {
		assert.NotContains(t, item.Excluded, match.Academic)
	}
}

func Test_financialAidApi(t *testing.T) {
	env.Reset()
	_, berkeley, _ := seedUniversities(t)

	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)
	token := getToken(t, usr)

	runHTTPTests(t, []httpTest{
		{
			name:     "efc without a profile",
			method:   http.MethodGet,
			path:     "/v1/financial-aid/efc",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"financial_profile":"provide the family finances or save a financial profile first"}`),
		},
		{
			name:     "invalid input",
			method:   http.MethodPost,
			path:     "/v1/financial-aid/efc",
			body:     []byte(`{"income":-5,"dependency":"orphaned"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "estimate unknown university",
			method:   http.MethodPost,
			path:     "/v1/financial-aid/estimate",
			body:     []byte(`{"university_id":"nowhere-u","input":{"income":50000}}`),
			token:    token,
			wantCode: http.StatusNotFound,
		},
	})

	rec := serve(http.MethodPost, "/v1/financial-aid/efc", token, []byte(`{"income":0,"household_size":4}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var efc finaid.EFCBreakdown
	decode(t, rec, &efc)
	assert.Equal(t, 0.0, efc.EFC)

	rec = serve(http.MethodPost, "/v1/financial-aid/estimate", token,
		[]byte(`{"university_id":"`+berkeley.ID+`","input":{"income":40000,"household_size":4,"state":"ca","federal_aid_eligible":true}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var est finaid.Estimate
	decode(t, rec, &est)
	assert.Equal(t, berkeley.ID, est.UniversityID)
	assert.True(t, est.InState)
	assert.Equal(t, berkeley.TuitionInState, est.Tuition)
	assert.LessOrEqual(t, est.NetPrice, est.CostOfAttendance)

	// the saved profile is used when no input is posted
	rec = serve(http.MethodPut, "/v1/users/me/financial-profile", token, []byte(`{"household_income":40000,"household_size":4,"state":"CA"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = serve(http.MethodPost, "/v1/financial-aid/estimate", token, []byte(`{"university_id":"`+berkeley.Slug+`"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	est = finaid.Estimate{}
	decode(t, rec, &est)
	assert.True(t, est.InState)
}
