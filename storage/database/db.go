// Package database bootstraps the PostgreSQL database: role and database creation,
// connection pooling and migrations.
package database

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/Benouakrim/Academora-02-sub002/core"
	appfs "github.com/Benouakrim/Academora-02-sub002/fs"
)

const (
	pingAttempts = 30
	pingStep     = 100 * time.Millisecond

	migrationsDir = "migrations"
)

// dsn builds the connection URL of dbName, as the admin role when asAdmin is set and one is configured.
func dsn(conf *core.Config, dbName string, asAdmin bool) string {
	dbc := conf.Database
	user := url.UserPassword(dbc.User, dbc.Password)
	if asAdmin && dbc.AdminUser != "" {
		user = url.UserPassword(dbc.AdminUser, dbc.AdminPassword)
	}

	q := make(url.Values)
	q.Set("sslmode", "require")
	if dbc.DisableTLS {
		q.Set("sslmode", "disable")
	}
	q.Set("timezone", "utc")

	u := url.URL{Scheme: dbc.Engine, User: user, Host: dbc.Address(), Path: dbName, RawQuery: q.Encode()}
	return u.String()
}

// connect opens dbName and waits until it accepts connections, backing off a little more after each failed ping.
func connect(conf *core.Config, dbName string, asAdmin bool) (*sqlx.DB, error) {
	db, err := sqlx.Open(conf.Database.Engine, dsn(conf, dbName, asAdmin))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbName)
	}

	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return db, nil
		}
		if attempt == pingAttempts {
			_ = db.Close()
			return nil, errors.Wrapf(err, "pinging %s", dbName)
		}
		time.Sleep(time.Duration(attempt) * pingStep)
	}
}

// Open connects to the application database with the configured pool limits.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := connect(conf, conf.Database.Name, false)
	if err != nil {
		return nil, err
	}
	if n := conf.Database.MaxOpenConns; n > 0 {
		db.SetMaxOpenConns(n)
	}
	if n := conf.Database.MaxIdleConns; n > 0 {
		db.SetMaxIdleConns(n)
	}
	if d := conf.Database.ConnLifetime; d > 0 {
		db.SetConnMaxLifetime(d)
	}
	return db, nil
}

func exists(db *sqlx.DB, query string, args ...interface{}) (bool, error) {
	var found bool
	err := db.Get(&found, "SELECT EXISTS ("+query+")", args...)
	return found, err
}

// CreateIfNotExist makes sure the application role and database exist.
// The role is created by the admin role; the database is then created by the application role, which owns it.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.User != "" {
		admin, err := connect(conf, "postgres", true)
		if err != nil {
			return err
		}
		defer func() { _ = admin.Close() }()

		found, err := exists(admin, "SELECT 1 FROM pg_roles WHERE rolname = $1", conf.Database.User)
		if err != nil {
			return errors.Wrap(err, "checking app role")
		}
		if !found {
			q := "CREATE ROLE " + pq.QuoteIdentifier(conf.Database.User) +
				" LOGIN CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(conf.Database.Password)
			if _, err = admin.Exec(q); err != nil {
				return errors.Wrap(err, "creating app role")
			}
		}
	}

	db, err := connect(conf, "postgres", false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	found, err := exists(db, "SELECT 1 FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking database")
	}
	if !found {
		if _, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// Migrate applies every pending migration embedded in the fs package.
func Migrate(db *sql.DB) error {
	return errors.Wrap(goose.RunFS("up", db, appfs.FS, migrationsDir), "migrating database")
}
