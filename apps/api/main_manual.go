package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

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

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up logger
	std := logsvc.NewStdLogger(conf)
	logger := logsvc.New(std, conf)

	// set up storage
	repos, err := storage.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	cache, err := cachesvc.New(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, std, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidate()
	user.RegisterValidators(validate, translator)
	university.RegisterValidators(validate, translator)
	article.RegisterValidators(validate, translator)

	core.ParseEmailTemplates(logger, false /* strict */)

	// set up services
	usrSvc := user.NewService(repos.Users, validate, logger)
	univSvc := university.NewService(repos.Universities, cache, conf.Cache.TTL, validate, logger)
	matchSvc := match.NewService(usrSvc, univSvc, logger)
	loadMatchPresets(matchSvc, logger)
	artSvc := article.NewService(repos.Articles, usrSvc, mailSvc, conf.FrontendBaseURL, validate, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			UserSvc:       usrSvc,
			UniversitySvc: univSvc,
			MatchSvc:      matchSvc,
			FinaidSvc:     finaid.NewService(usrSvc, univSvc, validate),
			ArticleSvc:    artSvc,
			CommentSvc:    comment.NewService(repos.Comments, artSvc, validate),
			ClaimSvc:      claim.NewService(repos.Claims, univSvc, usrSvc, mailSvc, conf, validate, logger),
			ReferralSvc:   referral.NewService(repos.Referrals, usrSvc, validate, logger),
			AnalyticsSvc:  analytics.NewService(repos.Analytics, validate),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// loadMatchPresets merges the shipped preset file over the built-in presets.
func loadMatchPresets(svc *match.Service, logger core.Logger) {
	data, err := appfs.FS.ReadFile("seed/match_presets.yaml")
	if err != nil {
		logger.Warn("reading match presets", err)
		return
	}
	if err = svc.LoadPresets(data); err != nil {
		logger.Error("loading match presets", err)
	}
}
