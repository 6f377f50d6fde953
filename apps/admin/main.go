package main

import (
	"database/sql"
	"os"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/match"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	appfs "github.com/Benouakrim/Academora-02-sub002/fs"
	cachesvc "github.com/Benouakrim/Academora-02-sub002/services/cache"
	logsvc "github.com/Benouakrim/Academora-02-sub002/services/logger"
	"github.com/Benouakrim/Academora-02-sub002/storage"
	inmemdb "github.com/Benouakrim/Academora-02-sub002/storage/database/inmem"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	std := logsvc.NewStdLogger(conf)
	std.SetPrefix("ADMIN : ")
	logger = logsvc.New(std, conf)

	// set up storage; migrations are left to the migrate command
	var db *sql.DB
	var repos *storage.Repositories
	if conf.Storage == storage.Memory {
		repos = storage.NewMemoryRepositories(inmemdb.Open())
	} else {
		dbx, err := storage.OpenPostgres(conf, false /* migrate */)
		errAndDie(err)
		db = dbx.DB
		repos = storage.NewPostgresRepositories(dbx)
	}
	defer func() { _ = repos.Close() }()

	cache, err := cachesvc.New(conf)
	errAndDie(err)

	validate, translator := core.NewValidate()
	user.RegisterValidators(validate, translator)
	university.RegisterValidators(validate, translator)

	usrSvc := user.NewService(repos.Users, validate, logger)
	univSvc := university.NewService(repos.Universities, cache, conf.Cache.TTL, validate, logger)
	matchSvc := match.NewService(usrSvc, univSvc, logger)
	if data, err := appfs.FS.ReadFile("seed/match_presets.yaml"); err == nil {
		errAndDie(matchSvc.LoadPresets(data))
	}

	// start CLI
	cli := commandLine{
		conf:         conf,
		db:           db,
		out:          os.Stdout,
		users:        usrSvc,
		universities: univSvc,
		match:        matchSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		_ = repos.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
