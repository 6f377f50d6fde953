package main

import (
	"context"
	"fmt"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// promote grants or revokes an admin role.
func (cli *commandLine) promote(email, role string, revoke bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	usr, err := cli.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	roles := make([]string, 0, len(usr.Roles)+1)
	for _, r := range usr.Roles {
		if r != role {
			roles = append(roles, r)
		}
	}
	if !revoke {
		roles = append(roles, role)
	}

	if usr, err = cli.users.SetRoles(ctx, email, roles...); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s roles: %v\n", usr.Email, usr.Roles)
	return nil
}
