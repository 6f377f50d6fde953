package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/Benouakrim/Academora-02-sub002/apps/api/echo"
	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/analytics"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
	"github.com/Benouakrim/Academora-02-sub002/core/claim"
	"github.com/Benouakrim/Academora-02-sub002/core/comment"
	"github.com/Benouakrim/Academora-02-sub002/core/finaid"
	"github.com/Benouakrim/Academora-02-sub002/core/match"
	"github.com/Benouakrim/Academora-02-sub002/core/referral"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	appfs "github.com/Benouakrim/Academora-02-sub002/fs"
	cachesvc "github.com/Benouakrim/Academora-02-sub002/services/cache"
	emailsvc "github.com/Benouakrim/Academora-02-sub002/services/email"
	logsvc "github.com/Benouakrim/Academora-02-sub002/services/logger"
	"github.com/Benouakrim/Academora-02-sub002/storage"
)

// ServiceParams groups every domain service needed by the API server.
type ServiceParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	Users        *user.Service
	Universities *university.Service
	Match        *match.Service
	Finaid       *finaid.Service
	Articles     *article.Service
	Comments     *comment.Service
	Claims       *claim.Service
	Referrals    *referral.Service
	Analytics    *analytics.Service
}

func newStdLogger(conf *core.Config) *log.Logger {
	return logsvc.NewStdLogger(conf)
}

func newRepositories(conf *core.Config, logger core.Logger) *storage.Repositories {
	repos, err := storage.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	return repos
}

func newCache(conf *core.Config) (core.Cache, error) {
	return cachesvc.New(conf)
}

func newEmailService(conf *core.Config, std *log.Logger, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, std, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidate() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidate()
	user.RegisterValidators(validate, translator)
	university.RegisterValidators(validate, translator)
	article.RegisterValidators(validate, translator)
	return validate, translator
}

func newUserService(repos *storage.Repositories, validate *validator.Validate, logger core.Logger) *user.Service {
	return user.NewService(repos.Users, validate, logger)
}

func newUniversityService(
	conf *core.Config,
	repos *storage.Repositories,
	cache core.Cache,
	validate *validator.Validate,
	logger core.Logger,
) *university.Service {
	return university.NewService(repos.Universities, cache, conf.Cache.TTL, validate, logger)
}

func newMatchService(users *user.Service, universities *university.Service, logger core.Logger) (*match.Service, error) {
	svc := match.NewService(users, universities, logger)
	data, err := appfs.FS.ReadFile("seed/match_presets.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "reading match presets")
	}
	if err = svc.LoadPresets(data); err != nil {
		return nil, errors.Wrap(err, "loading match presets")
	}
	return svc, nil
}

func newFinaidService(users *user.Service, universities *university.Service, validate *validator.Validate) *finaid.Service {
	return finaid.NewService(users, universities, validate)
}

func newArticleService(
	conf *core.Config,
	repos *storage.Repositories,
	users *user.Service,
	mailer core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
) *article.Service {
	return article.NewService(repos.Articles, users, mailer, conf.FrontendBaseURL, validate, logger)
}

func newCommentService(repos *storage.Repositories, articles *article.Service, validate *validator.Validate) *comment.Service {
	return comment.NewService(repos.Comments, articles, validate)
}

func newClaimService(
	conf *core.Config,
	repos *storage.Repositories,
	universities *university.Service,
	users *user.Service,
	mailer core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
) *claim.Service {
	return claim.NewService(repos.Claims, universities, users, mailer, conf, validate, logger)
}

func newReferralService(repos *storage.Repositories, users *user.Service, validate *validator.Validate, logger core.Logger) *referral.Service {
	return referral.NewService(repos.Referrals, users, validate, logger)
}

func newAnalyticsService(repos *storage.Repositories, validate *validator.Validate) *analytics.Service {
	return analytics.NewService(repos.Analytics, validate)
}

func newServer(p ServiceParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.Users,
		UniversitySvc: p.Universities,
		MatchSvc:      p.Match,
		FinaidSvc:     p.Finaid,
		ArticleSvc:    p.Articles,
		CommentSvc:    p.Comments,
		ClaimSvc:      p.Claims,
		ReferralSvc:   p.Referrals,
		AnalyticsSvc:  p.Analytics,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newStdLogger))
	must(c.Provide(logsvc.New))
	must(c.Provide(newRepositories))
	must(c.Provide(newCache))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidate))
	must(c.Provide(newUserService))
	must(c.Provide(newUniversityService))
	must(c.Provide(newMatchService))
	must(c.Provide(newFinaidService))
	must(c.Provide(newArticleService))
	must(c.Provide(newCommentService))
	must(c.Provide(newClaimService))
	must(c.Provide(newReferralService))
	must(c.Provide(newAnalyticsService))
	must(c.Provide(newServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
