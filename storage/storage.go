// Package storage opens the repositories of the configured storage backend.
package storage

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/analytics"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
	"github.com/Benouakrim/Academora-02-sub002/core/claim"
	"github.com/Benouakrim/Academora-02-sub002/core/comment"
	"github.com/Benouakrim/Academora-02-sub002/core/referral"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	"github.com/Benouakrim/Academora-02-sub002/storage/database"
	inmemdb "github.com/Benouakrim/Academora-02-sub002/storage/database/inmem"
	boiledrepos "github.com/Benouakrim/Academora-02-sub002/storage/database/sqlboiler"
	sqlxrepos "github.com/Benouakrim/Academora-02-sub002/storage/database/sqlx"
)

const (
	Postgres = "postgres"
	Memory   = "memory"
)

type Repositories struct {
	Users        user.Repository
	Universities university.Repository
	Articles     article.Repository
	Comments     comment.Repository
	Claims       claim.Repository
	Referrals    referral.Repository
	Analytics    analytics.Repository

	close func() error
}

// Close releases the underlying database, if any.
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// Open sets up the backend named by conf.Storage.
// A PostgreSQL database is created when missing and migrated before use.
func Open(conf *core.Config) (*Repositories, error) {
	switch conf.Storage {
	case Memory:
		return NewMemoryRepositories(inmemdb.Open()), nil
	case Postgres, "":
		db, err := OpenPostgres(conf, true /* migrate */)
		if err != nil {
			return nil, err
		}
		return NewPostgresRepositories(db), nil
	default:
		return nil, errors.Errorf("unknown storage %q", conf.Storage)
	}
}

// OpenPostgres creates the database if needed, connects to it and optionally applies the migrations.
func OpenPostgres(conf *core.Config, migrate bool) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func NewPostgresRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:        sqlxrepos.NewUserRepository(db),
		Universities: sqlxrepos.NewUniversityRepository(db),
		Articles:     sqlxrepos.NewArticleRepository(db),
		Comments:     sqlxrepos.NewCommentRepository(db),
		Claims:       sqlxrepos.NewClaimRepository(db),
		Referrals:    sqlxrepos.NewReferralRepository(db),
		Analytics:    boiledrepos.NewAnalyticsRepository(db.DB),
		close:        db.Close,
	}
}

func NewMemoryRepositories(db *inmemdb.DB) *Repositories {
	return &Repositories{
		Users:        inmemdb.NewUserRepository(db),
		Universities: inmemdb.NewUniversityRepository(db),
		Articles:     inmemdb.NewArticleRepository(db),
		Comments:     inmemdb.NewCommentRepository(db),
		Claims:       inmemdb.NewClaimRepository(db),
		Referrals:    inmemdb.NewReferralRepository(db),
		Analytics:    inmemdb.NewAnalyticsRepository(db),
	}
}
