// Package testutil wires the services over in-memory storage for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

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
	cachesvc "github.com/Benouakrim/Academora-02-sub002/services/cache"
	emailsvc "github.com/Benouakrim/Academora-02-sub002/services/email"
	logsvc "github.com/Benouakrim/Academora-02-sub002/services/logger"
	inmemdb "github.com/Benouakrim/Academora-02-sub002/storage/database/inmem"
)

var parseTemplates sync.Once

type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Mailer     core.EmailService
	DB         *inmemdb.DB

	UserRepo       user.Repository
	UniversityRepo university.Repository
	ArticleRepo    article.Repository

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

// NewLogger returns a logger that prints nothing and reports nowhere.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewApp builds every service over a fresh in-memory database.
// Emails are recorded synchronously; see emailsvc.SentMessages.
func NewApp() *App {
	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	parseTemplates.Do(func() { core.ParseEmailTemplates(logger, true /* strict */) })

	validate, translator := core.NewValidate()
	user.RegisterValidators(validate, translator)
	university.RegisterValidators(validate, translator)
	article.RegisterValidators(validate, translator)

	cache, err := cachesvc.New(conf)
	if err != nil {
		panic(err)
	}

	db := inmemdb.Open()
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)

	a := &App{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Mailer:         mailer,
		DB:             db,
		UserRepo:       inmemdb.NewUserRepository(db),
		UniversityRepo: inmemdb.NewUniversityRepository(db),
		ArticleRepo:    inmemdb.NewArticleRepository(db),
	}
	a.Users = user.NewService(a.UserRepo, validate, logger)
	a.Universities = university.NewService(a.UniversityRepo, cache, conf.Cache.TTL, validate, logger)
	a.Match = match.NewService(a.Users, a.Universities, logger)
	a.Finaid = finaid.NewService(a.Users, a.Universities, validate)
	a.Articles = article.NewService(a.ArticleRepo, a.Users, mailer, conf.FrontendBaseURL, validate, logger)
	a.Comments = comment.NewService(inmemdb.NewCommentRepository(db), a.Articles, validate)
	a.Claims = claim.NewService(inmemdb.NewClaimRepository(db), a.Universities, a.Users, mailer, conf, validate, logger)
	a.Referrals = referral.NewService(inmemdb.NewReferralRepository(db), a.Users, validate, logger)
	a.Analytics = analytics.NewService(inmemdb.NewAnalyticsRepository(db), validate)
	return a
}

// Reset empties the database and the recorded emails.
func (a *App) Reset() {
	a.DB.Reset()
	emailsvc.ResetSentMessages()
}

// CreateUser stores a user directly, bypassing provisioning.
func CreateUser(t testing.TB, repo user.Repository, name, email string, roles []string, isActive bool, createdAt ...time.Time) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		ID:          uuid.New().String(),
		ExternalID:  "idp|" + email,
		Email:       email,
		Name:        name,
		AccountType: user.AccountStudent,
		Roles:       roles,
		IsActive:    isActive,
		Privacy:     user.DefaultPrivacySettings(),
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
		LastSeen:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateUniversity imports a university with the given attributes.
func CreateUniversity(t testing.TB, svc *university.Service, attrs university.Attributes) university.University {
	univ, err := svc.Import(context.Background(), attrs)
	if err != nil {
		t.Fatalf("CreateUniversity() failed: %v", err)
	}
	return univ
}

// CreateArticle writes an article as author and applies the given workflow actions.
func CreateArticle(t testing.TB, svc *article.Service, author user.User, title string, actions ...article.Transition) article.Article {
	ctx := context.Background()
	art, err := svc.Create(ctx, author, article.Content{Title: title, Content: "<p>" + title + "</p>", Category: "guides"})
	if err != nil {
		t.Fatalf("CreateArticle() failed: %v", err)
	}
	for _, tr := range actions {
		if art, err = svc.Transition(ctx, author, art.ID, tr); err != nil {
			t.Fatalf("CreateArticle(%s) failed: %v", tr.Action, err)
		}
	}
	return art
}

func Float(f float64) *float64 { return &f }

func Int(i int) *int { return &i }
