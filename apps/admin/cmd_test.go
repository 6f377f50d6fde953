package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/Benouakrim/Academora-02-sub002/apps/api/echo"
	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.App, *bytes.Buffer) {
	env := testutil.NewApp()
	conf := *env.Conf
	out := new(bytes.Buffer)

	return &commandLine{
		conf:         &conf,
		out:          out,
		users:        env.Users,
		universities: env.Universities,
		match:        env.Match,
	}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantAnyErr bool
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantAnyErr:
				assert.Error(t, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
	assert.Contains(t, out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no storage", args: []string{"migrate", "up"}, wantErr: errNoDatabase},
	})

	cli.db = new(sql.DB)
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	})
}

func Test_commandLine_seed(t *testing.T) {
	cli, env, out := setup(t)
	ctx := context.Background()

	require.NoError(t, cli.run([]string{"admin", "seed"}))
	assert.Contains(t, out.String(), "universities imported, 0 skipped")
	_, total, err := env.Universities.Search(ctx, &university.SearchFilter{}, nil, core.Page{Number: 1, Size: 1})
	require.NoError(t, err)
	assert.Greater(t, total, 0)

	// seeding again changes nothing
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "seed"}))
	assert.Equal(t, fmt.Sprintf("0 universities imported, %d skipped\n", total), out.String())

	file := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
universities:
  - name: Harbor College
    city: Portland
    state: ME
    setting: urban
    type: private
`), 0o600))
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "seed", "-file", file}))
	assert.Equal(t, "1 universities imported, 0 skipped\n", out.String())

	univ, err := env.Universities.Get(ctx, "harbor-college")
	require.NoError(t, err)
	assert.Equal(t, "northeast", univ.Region)

	assert.Error(t, cli.run([]string{"admin", "seed", "-file", filepath.Join(t.TempDir(), "missing.yaml")}))
}

func Test_commandLine_promote(t *testing.T) {
	cli, env, out := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"promote"}, wantErr: errHelp},
		{name: "no role", args: []string{"promote", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"promote", "-email", "lol@test.com", "-role", user.RoleAdmin}, wantErr: user.ErrNotFound},
		{name: "unknown role", args: []string{"promote", "-email", usr.Email, "-role", "admin:lol"}, wantAnyErr: true},
		{name: "grant", args: []string{"promote", "-email", "AWE@test.com", "-role", user.RoleAdminModerator}},
		{name: "grant twice", args: []string{"promote", "-email", usr.Email, "-role", user.RoleAdminModerator}},
	})

	refreshed, err := env.Users.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleAdminModerator}, refreshed.Roles)
	assert.True(t, refreshed.IsModerator())
	assert.Contains(t, out.String(), "awe@test.com roles: [admin:moderator]")

	require.NoError(t, cli.run([]string{"admin", "promote", "-email", usr.Email, "-role", user.RoleAdminModerator, "-revoke"}))
	refreshed, err = env.Users.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Empty(t, refreshed.Roles)
}

func Test_commandLine_token(t *testing.T) {
	cli, env, out := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)

	parse := func(t *testing.T, tkn, key string) echoapi.Claims {
		var claims echoapi.Claims
		_, err := jwt.ParseWithClaims(tkn, &claims, func(*jwt.Token) (interface{}, error) { return []byte(key), nil })
		require.NoError(t, err)
		return claims
	}

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"token"}, wantErr: errHelp},
		{name: "user not found", args: []string{"token", "-email", "lol@test.com"}, wantErr: user.ErrNotFound},
	})

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "token", "-email", usr.Email}))
	claims := parse(t, strings.TrimSpace(out.String()), env.Conf.SecretKey)
	assert.Equal(t, usr.ExternalID, claims.Subject)
	assert.Equal(t, usr.Email, claims.Email)

	// without a configured key, the key is prompted
	cli.conf.SecretKey = ""
	readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
	assert.Equal(t, errEmptySecret, cli.run([]string{"admin", "token", "-email", usr.Email}))

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("prompted-key"), nil }
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "token", "-email", usr.Email}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	claims = parse(t, lines[len(lines)-1], "prompted-key")
	assert.Equal(t, usr.ExternalID, claims.Subject)
}

func Test_commandLine_rank(t *testing.T) {
	cli, env, out := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Awe", "awe@test.com", nil, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"rank"}, wantErr: errHelp},
		{name: "bad limit", args: []string{"rank", "-email", usr.Email, "-limit", "0"}, wantErr: errHelp},
		{name: "user not found", args: []string{"rank", "-email", "lol@test.com"}, wantErr: user.ErrNotFound},
	})

	require.NoError(t, cli.run([]string{"admin", "seed"}))
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "rank", "-email", usr.Email, "-limit", "2"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, out.String())
	assert.Contains(t, lines[0], "universities ranked for awe@test.com (basic)")
	assert.Contains(t, lines[1], "UNIVERSITY")
	assert.True(t, strings.HasPrefix(lines[2], "  1  "), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "  2  "), lines[3])

	assert.Error(t, cli.run([]string{"admin", "rank", "-email", usr.Email, "-preset", "vibes"}))
}

func Test_row(t *testing.T) {
	price := 12345.6
	long := strings.Repeat("東京", 30)

	r := row("1", long, "87.5", "excellent", formatPrice(&price))
	assert.Contains(t, r, "…")
	assert.Contains(t, r, "$12346")
	assert.Equal(t, "-", formatPrice(nil))

	// columns line up whatever the width of the name
	short := row("1", "MIT", "87.5", "excellent", formatPrice(&price))
	assert.Equal(t, runewidth.StringWidth(short), runewidth.StringWidth(r))
}
