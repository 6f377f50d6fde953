package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

// adminMiddleware requires an admin holding any of roles (any admin role when empty).
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() && (len(roles) == 0 || hasAnyRole(usr.Roles, roles)) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func moderatorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsModerator() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func hasAnyRole(have, want []string) bool {
	for _, role := range want {
		if core.ContainsString(have, role) {
			return true
		}
	}
	return false
}
