package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

const (
	tokenContextKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the identity provider; Subject is the provider's user ID.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
}

func (c Claims) Identity() user.Identity {
	return user.Identity{Subject: c.Subject, Email: c.Email, Name: c.Name}
}

// NewClaims builds the claims of a token for ident, as the identity provider would.
func NewClaims(conf *core.Config, ident user.Identity, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 && origIat[0] > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.Server.JWTIssuer,
			Subject:   ident.Subject,
			Audience:  conf.Server.JWTAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        ident.Email,
		Name:         ident.Name,
	}
}

func newJWTConfig(conf *core.Config, skipper middleware.Skipper) middleware.JWTConfig {
	return middleware.JWTConfig{
		Skipper:       skipper,
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser returns the user provisioned for the request token.
func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// optionalContextUser returns the zero User for anonymous requests.
func optionalContextUser(ctx echo.Context) user.User {
	usr, _ := getContextUser(ctx)
	return usr
}

// provisionMiddleware links the token subject to a local user, creating it on first sight.
// When optional is set, requests without a token go through anonymously.
func provisionMiddleware(conf *core.Config, svc *user.Service, optional bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				if optional {
					return next(ctx)
				}
				return err
			}
			if iss := conf.Server.JWTIssuer; iss != "" && !claims.VerifyIssuer(iss, true) {
				return errTokenRejected
			}
			if aud := conf.Server.JWTAudience; aud != "" && !claims.VerifyAudience(aud, true) {
				return errTokenRejected
			}

			usr, err := svc.Provision(ctx.Request().Context(), claims.Identity())
			if err != nil {
				return errors.Wrap(err, "provisioning user")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func hasAuthorization(ctx echo.Context) bool {
	return ctx.Request().Header.Get(echo.HeaderAuthorization) != ""
}

// refreshToken re-signs the request token while its original issue time is within the refresh window.
func refreshToken(ctx echo.Context, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	oriat := claims.OrigIssuedAt
	if oriat == 0 {
		oriat = claims.IssuedAt
	}
	expTime := time.Unix(oriat, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, NewClaims(conf, claims.Identity(), oriat))
	return token, errors.Wrap(err, "generating token")
}
