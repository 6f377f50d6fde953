package main

import (
	"context"
	"fmt"

	echoapi "github.com/Benouakrim/Academora-02-sub002/apps/api/echo"
	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

// token prints a bearer token for an existing user, signed as the identity provider would.
func (cli *commandLine) token(email string) error {
	usr, err := cli.users.GetByEmail(context.Background(), core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}

	ident := user.Identity{Subject: usr.ExternalID, Email: usr.Email, Name: usr.Name}
	tkn, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, ident))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, tkn)
	return nil
}
