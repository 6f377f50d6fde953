package tests

import (
	"os"
	"testing"

	. "github.com/Benouakrim/Academora-02-sub002/apps/api/echo"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

var (
	env  *testutil.App
	deps ServerDeps
	app  *Server

	errMissingToken   = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken   = httpErr{Error: "invalid or expired jwt"}
	errDeactivated    = httpErr{Error: "account deactivated"}
	errPermission     = httpErr{Error: "permission denied"}
	errTokenNotForApp = httpErr{Error: "token not issued for this application"}
)

func TestMain(m *testing.M) {
	// set up services over the in-memory store
	env = testutil.NewApp()

	deps = ServerDeps{
		Conf:          env.Conf,
		Logger:        env.Logger,
		Validate:      env.Validate,
		Translator:    env.Translator,
		UserSvc:       env.Users,
		UniversitySvc: env.Universities,
		MatchSvc:      env.Match,
		FinaidSvc:     env.Finaid,
		ArticleSvc:    env.Articles,
		CommentSvc:    env.Comments,
		ClaimSvc:      env.Claims,
		ReferralSvc:   env.Referrals,
		AnalyticsSvc:  env.Analytics,
	}
	app = NewServer(deps)

	os.Exit(m.Run())
}
