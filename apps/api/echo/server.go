// Package echoapi exposes the Academora services over HTTP with echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       *user.Service
		UniversitySvc *university.Service
		MatchSvc      *match.Service
		FinaidSvc     *finaid.Service
		ArticleSvc    *article.Service
		CommentSvc    *comment.Service
		ClaimSvc      *claim.Service
		ReferralSvc   *referral.Service
		AnalyticsSvc  *analytics.Service
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}

	// authChain is the middleware stack of routes requiring (or accepting) a bearer token.
	authChain []echo.MiddlewareFunc
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		logger:   deps.Logger,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	conf := deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	auth := authChain{
		middleware.JWTWithConfig(newJWTConfig(conf, nil)),
		provisionMiddleware(conf, deps.UserSvc, false),
	}
	optionalAuth := authChain{
		middleware.JWTWithConfig(newJWTConfig(conf, func(ctx echo.Context) bool { return !hasAuthorization(ctx) })),
		provisionMiddleware(conf, deps.UserSvc, true),
	}

	registerUserAPI(v1, auth, conf, deps.UserSvc)
	registerUniversityAPI(v1, auth, deps.UniversitySvc)
	registerMatchAPI(v1, auth, deps.MatchSvc, deps.FinaidSvc)
	registerArticleAPI(v1, auth, optionalAuth, deps.ArticleSvc, deps.CommentSvc)
	registerClaimAPI(v1, auth, deps.ClaimSvc)
	registerReferralAPI(v1, auth, deps.ReferralSvc)
	registerAnalyticsAPI(v1, auth, deps.AnalyticsSvc)
}

// with appends extra middleware to a copy of the chain.
func (c authChain) with(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(c)+len(mw))
	out = append(out, c...)
	return append(out, mw...)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.logger.Info("API listening on " + s.conf.Server.Address)
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports fatal listener errors.
func (s *Server) Errors() <-chan error { return s.errors }

// ShutdownSignal is notified on SIGINT, SIGTERM and core.shutdown errors.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Academora API!")
}
