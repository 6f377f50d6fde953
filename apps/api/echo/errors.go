package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
	"github.com/Benouakrim/Academora-02-sub002/core/claim"
	"github.com/Benouakrim/Academora-02-sub002/core/comment"
	"github.com/Benouakrim/Academora-02-sub002/core/referral"
	"github.com/Benouakrim/Academora-02-sub002/core/university"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRejected      = echo.NewHTTPError(http.StatusUnauthorized, "token not issued for this application")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// sentinelCodes maps domain errors to their HTTP status.
var sentinelCodes = map[error]int{
	core.ErrForbidden:           http.StatusForbidden,
	user.ErrNotFound:            http.StatusNotFound,
	user.ErrProfileNotFound:     http.StatusNotFound,
	user.ErrEmailExists:         http.StatusConflict,
	university.ErrNotFound:      http.StatusNotFound,
	university.ErrNotSaved:      http.StatusNotFound,
	university.ErrSlugExists:    http.StatusConflict,
	article.ErrNotFound:         http.StatusNotFound,
	comment.ErrNotFound:         http.StatusNotFound,
	claim.ErrNotFound:           http.StatusNotFound,
	referral.ErrNotFound:        http.StatusNotFound,
	referral.ErrReferralMissing: http.StatusNotFound,
	referral.ErrCodeExists:      http.StatusConflict,
	referral.ErrExhausted:       http.StatusConflict,
	referral.ErrAlreadyReferred: http.StatusConflict,
}

func sentinelCode(err error) (int, bool) {
	for sentinel, code := range sentinelCodes {
		if err == sentinel {
			return code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.ConflictError:
			code = http.StatusConflict
			message = origErr.Error()
		default:
			if sc, ok := sentinelCode(origErr); ok {
				code = sc
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			usr, uErr := getContextUser(ctx)
			if uErr != nil {
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ExternalID = claims.Subject
					usr.Email = claims.Email
					usr.Name = claims.Name
				}
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
