package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/match"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNoDatabase  = errors.New("migrate needs the postgres storage")
	errEmptySecret = errors.New("a signing key is required")
)

type commandLine struct {
	conf         *core.Config
	db           *sql.DB // nil with the memory storage
	out          io.Writer
	users        *user.Service
	universities *university.Service
	match        *match.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                - run a goose command (up, up-by-one, up-to V, down, down-to V, redo, status, version)")
	fmt.Fprintln(cli.out, "  seed [-file FILE]                     - import universities from a YAML catalogue")
	fmt.Fprintln(cli.out, "  promote -email EMAIL -role ROLE       - grant (or -revoke) an admin role")
	fmt.Fprintln(cli.out, "  token -email EMAIL                    - mint a development bearer token")
	fmt.Fprintln(cli.out, "  rank -email EMAIL [-preset P] [-limit N] - print the best matches of a user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "", "The YAML catalogue to import. Defaults to the bundled sample.")

	promoteCmd := flag.NewFlagSet("promote", flag.ContinueOnError)
	promoteEmail := promoteCmd.String("email", "", "The user's email.")
	promoteRole := promoteCmd.String("role", "", "One of "+fmt.Sprint(user.AdminRoles)+".")
	promoteRevoke := promoteCmd.Bool("revoke", false, "Remove the role instead of granting it.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenEmail := tokenCmd.String("email", "", "The user's email. The signing key is prompted when not configured.")

	rankCmd := flag.NewFlagSet("rank", flag.ContinueOnError)
	rankEmail := rankCmd.String("email", "", "The user's email.")
	rankPreset := rankCmd.String("preset", "", "The weight preset; defaults to "+match.DefaultPreset+".")
	rankLimit := rankCmd.Int("limit", 10, "How many universities to print.")

	for _, fs := range []*flag.FlagSet{seedCmd, promoteCmd, tokenCmd, rankCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.seed(*seedFile)

	case "promote":
		if err := promoteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *promoteEmail == "" || *promoteRole == "" {
			promoteCmd.Usage()
			return errHelp
		}
		return cli.promote(*promoteEmail, *promoteRole, *promoteRevoke)

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenEmail == "" {
			tokenCmd.Usage()
			return errHelp
		}
		if cli.conf.SecretKey == "" {
			fmt.Fprint(cli.out, "Enter signing key:")
			key, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return err
			}
			if len(key) == 0 {
				return errEmptySecret
			}
			cli.conf.SecretKey = string(key)
		}
		return cli.token(*tokenEmail)

	case "rank":
		if err := rankCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *rankEmail == "" || *rankLimit < 1 {
			rankCmd.Usage()
			return errHelp
		}
		return cli.rank(*rankEmail, *rankPreset, *rankLimit)

	default:
		cli.printUsage()
		return errHelp
	}
}
