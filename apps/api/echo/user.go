package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

type userApi struct {
	conf *core.Config
	svc  *user.Service
}

func registerUserAPI(g *echo.Group, auth authChain, conf *core.Config, svc *user.Service) {
	api := userApi{conf: conf, svc: svc}

	ug := g.Group("/users")

	// current user
	mg := ug.Group("/me", auth...)
	mg.GET("", api.me)
	mg.PUT("", api.updateMe)
	mg.POST("/token-refresh", api.refreshToken)
	mg.PUT("/privacy", api.updatePrivacy)
	mg.GET("/academic-profile", api.academicProfile)
	mg.PUT("/academic-profile", api.saveAcademicProfile)
	mg.GET("/financial-profile", api.financialProfile)
	mg.PUT("/financial-profile", api.saveFinancialProfile)
	mg.PUT("/onboarding", api.saveOnboarding)

	// admin endpoints
	admin := auth.with(adminMiddleware())
	ug.GET("", api.query, admin...)
	ug.DELETE("", api.destroyMultiple, admin...)
	ug.GET("/roles", api.queryRoles, admin...)
	ug.GET("/:id", api.retrieve, admin...)
	ug.PUT("/:id", api.update, admin...)
	ug.DELETE("/:id", api.destroy, admin...)
}

// Handlers

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updateMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	// roles & activation go through the admin endpoints
	if data.Roles != nil || data.IsActive != nil {
		return errHttpForbidden
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) updatePrivacy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdatePrivacy
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePrivacy")
	}

	usr, err = api.svc.UpdatePrivacy(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating privacy settings")
	}
	return ctx.JSON(http.StatusOK, usr.Privacy)
}

func (api *userApi) academicProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	ap, err := api.svc.GetAcademicProfile(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting academic profile")
	}
	return ctx.JSON(http.StatusOK, ap)
}

func (api *userApi) saveAcademicProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.AcademicProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AcademicProfile")
	}

	ap, err := api.svc.SaveAcademicProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving academic profile")
	}
	return ctx.JSON(http.StatusOK, ap)
}

func (api *userApi) financialProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	fp, err := api.svc.GetFinancialProfile(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting financial profile")
	}
	return ctx.JSON(http.StatusOK, fp)
}

func (api *userApi) saveFinancialProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.FinancialProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FinancialProfile")
	}

	fp, err := api.svc.SaveFinancialProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving financial profile")
	}
	return ctx.JSON(http.StatusOK, fp)
}

func (api *userApi) saveOnboarding(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data OnboardingRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OnboardingRequest")
	}

	usr, err = api.svc.SaveOnboarding(ctx.Request().Context(), usr.ID, data.Answers, data.Complete)
	if err != nil {
		return errors.Wrap(err, "saving onboarding")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	isActive, err := bindBoolParam(ctx, "is_active")
	if err != nil {
		return err
	}
	filter.IsActive = isActive
	ordering := new(Ordering)
	ordering.Bind(ctx)
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	users, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, newPageResult(users, total, page))
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	usr, err := api.svc.Update(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctxUsr, usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ids := queryList(ctx, "id")
	if len(ids) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctxUsr, ids...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

type (
	TokenResponse struct {
		Token string `json:"token"`
	}

	OnboardingRequest struct {
		Answers  user.OnboardingAnswers `json:"answers"`
		Complete bool                   `json:"complete"`
	}
)
