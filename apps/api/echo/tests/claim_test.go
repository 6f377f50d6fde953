package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core/claim"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	emailsvc "github.com/Benouakrim/Academora-02-sub002/services/email"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

// lastVerification returns the claim ID and token of the last verification email.
func lastVerification(t *testing.T) (string, string) {
	msgs := emailsvc.SentMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if data, ok := msgs[i].TemplateData.(map[string]string); ok && data["Token"] != "" {
			return data["ClaimID"], data["Token"]
		}
	}
	t.Fatal("no verification email sent")
	return "", ""
}

func Test_claimApi(t *testing.T) {
	env.Reset()
	stanford, _, _ := seedUniversities(t)

	claimant := testutil.CreateUser(t, env.UserRepo, "Registrar", "registrar@test.com", nil, true)
	rival := testutil.CreateUser(t, env.UserRepo, "Rival", "rival@test.com", nil, true)
	moderator := testutil.CreateUser(t, env.UserRepo, "Mod", "mod@test.com", []string{user.RoleAdminModerator}, true)
	claimantToken := getToken(t, claimant)
	rivalToken := getToken(t, rival)
	modToken := getToken(t, moderator)

	newClaim := func(contact string) []byte {
		return marshallObj(t, claim.NewClaim{
			UniversityID: stanford.ID,
			Title:        "Registrar",
			ContactEmail: contact,
			DocumentURLs: []string{"https://docs.example.com/proof.pdf"},
		})
	}

	runHTTPTests(t, []httpTest{
		{
			name:     "anonymous",
			method:   http.MethodPost,
			path:     "/v1/claims",
			body:     newClaim("registrar@stanford.edu"),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "invalid",
			method:   http.MethodPost,
			path:     "/v1/claims",
			body:     []byte(`{"university_id":"nope","contact_email":"not-an-email"}`),
			token:    claimantToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "moderators only listing",
			method:   http.MethodGet,
			path:     "/v1/claims",
			token:    claimantToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, errPermission),
		},
	})

	rec := serve(http.MethodPost, "/v1/claims", claimantToken, newClaim("registrar@stanford.edu"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c claim.Claim
	decode(t, rec, &c)
	assert.Equal(t, claim.StatusPending, c.Status)
	assert.False(t, c.EmailVerified)
	claimID, token := lastVerification(t)
	assert.Equal(t, c.ID, claimID)
	msgs := emailsvc.SentMessages()
	verification := msgs[len(msgs)-1]
	assert.Equal(t, "registrar@stanford.edu", verification.To[0].Address)
	assert.True(t, strings.HasPrefix(verification.TextContent, "Hi Registrar,\n"), verification.TextContent)
	assert.Contains(t, verification.TextContent, "token="+token)

	rec = serve(http.MethodPost, "/v1/claims", claimantToken, newClaim("registrar@stanford.edu"))
	assert.Equal(t, http.StatusConflict, rec.Code, "one open claim per university and claimant")

	rec = serve(http.MethodPost, "/v1/claims", rivalToken, newClaim("rival@stanford.edu"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rivalClaim claim.Claim
	decode(t, rec, &rivalClaim)

	// claims are private to their claimant
	rec = serve(http.MethodGet, "/v1/claims/"+c.ID, rivalToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(http.MethodGet, "/v1/claims/"+c.ID, modToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// approval waits for the contact email
	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/review", modToken, []byte(`{"action":"approve"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(http.MethodPost, "/v1/claims/verify", "", marshallObj(t, claim.Verification{ClaimID: c.ID, Token: "forged"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(http.MethodPost, "/v1/claims/verify", "", marshallObj(t, claim.Verification{ClaimID: c.ID, Token: token}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &c)
	assert.True(t, c.EmailVerified)
	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/resend-verification", claimantToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// ask for more information, then answer it
	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/review", modToken, []byte(`{"action":"request_info"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code, "a note is required")
	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/review", modToken, []byte(`{"action":"request_info","note":"need a staff ID"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &c)
	assert.Equal(t, claim.StatusNeedsInfo, c.Status)

	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/documents", rivalToken, []byte(`{"document_urls":["https://docs.example.com/id.png"]}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/documents", claimantToken, []byte(`{"document_urls":["https://docs.example.com/id.png"]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &c)
	assert.Equal(t, claim.StatusPending, c.Status)
	assert.Len(t, c.DocumentURLs, 2)

	rec = serve(http.MethodGet, "/v1/claims?status=PENDING", modToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pending struct {
		Total int `json:"total"`
	}
	decode(t, rec, &pending)
	assert.Equal(t, 2, pending.Total)

	// approval hands over the university and supersedes the rival claim
	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/review", modToken, []byte(`{"action":"approve"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &c)
	assert.Equal(t, claim.StatusApproved, c.Status)

	univ, err := env.Universities.Get(ctxBg, stanford.ID)
	require.NoError(t, err)
	assert.Equal(t, claimant.ID, univ.ClaimedBy)
	owner, err := env.Users.GetByID(ctxBg, claimant.ID)
	require.NoError(t, err)
	assert.Equal(t, user.AccountInstitution, owner.AccountType)

	rec = serve(http.MethodGet, "/v1/claims/"+rivalClaim.ID, rivalToken)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &rivalClaim)
	assert.Equal(t, claim.StatusRejected, rivalClaim.Status)
	rec = serve(http.MethodPost, "/v1/claims/"+rivalClaim.ID+"/withdraw", rivalToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// the new owner may now edit the university
	attrs := stanford.Attributes
	attrs.Website = "https://www.stanford.edu"
	rec = serve(http.MethodPut, "/v1/universities/"+stanford.ID, claimantToken, marshallObj(t, attrs))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated university.University
	decode(t, rec, &updated)
	assert.Equal(t, "https://www.stanford.edu", updated.Website)

	rec = serve(http.MethodGet, "/v1/claims/mine", claimantToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		Items []claim.Claim `json:"items"`
		Total int           `json:"total"`
	}
	decode(t, rec, &mine)
	require.Equal(t, 1, mine.Total)
	assert.Equal(t, c.ID, mine.Items[0].ID)
}

func Test_claimApi_withdraw(t *testing.T) {
	env.Reset()
	_, _, williams := seedUniversities(t)

	claimant := testutil.CreateUser(t, env.UserRepo, "Registrar", "registrar@test.com", nil, true)
	token := getToken(t, claimant)

	c, err := env.Claims.Submit(ctxBg, claimant, claim.NewClaim{UniversityID: williams.ID, ContactEmail: "registrar@williams.edu"})
	require.NoError(t, err)

	rec := serve(http.MethodPost, "/v1/claims/"+c.ID+"/resend-verification", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, emailsvc.SentMessages(), 2)

	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/withdraw", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var withdrawn claim.Claim
	decode(t, rec, &withdrawn)
	assert.Equal(t, claim.StatusWithdrawn, withdrawn.Status)

	rec = serve(http.MethodPost, "/v1/claims/"+c.ID+"/resend-verification", token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// withdrawing frees the claimant to try again
	rec = serve(http.MethodPost, "/v1/claims", token, []byte(`{"university_id":"`+williams.ID+`","contact_email":"registrar@williams.edu"}`))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
