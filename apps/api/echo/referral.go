package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core/analytics"
	"github.com/Benouakrim/Academora-02-sub002/core/referral"
)

type referralApi struct {
	svc *referral.Service
}

func registerReferralAPI(g *echo.Group, auth authChain, svc *referral.Service) {
	api := referralApi{svc: svc}

	rg := g.Group("/referrals", auth...)
	rg.GET("/me", api.stats)
	rg.POST("/redeem", api.redeem)
	rg.PUT("/:userId", api.configure, adminMiddleware())
}

func (api *referralApi) stats(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting referral stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *referralApi) redeem(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data referral.Redemption
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Redemption")
	}

	ref, err := api.svc.Redeem(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "redeeming referral code")
	}
	return ctx.JSON(http.StatusCreated, ref)
}

func (api *referralApi) configure(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data referral.UpdateCode
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCode")
	}

	c, err := api.svc.Configure(ctx.Request().Context(), usr, ctx.Param("userId"), data)
	if err != nil {
		return errors.Wrap(err, "configuring referral code")
	}
	return ctx.JSON(http.StatusOK, c)
}

type analyticsApi struct {
	svc *analytics.Service
}

func registerAnalyticsAPI(g *echo.Group, auth authChain, svc *analytics.Service) {
	api := analyticsApi{svc: svc}
	g.GET("/admin/analytics", api.dashboard, auth.with(adminMiddleware())...)
}

func (api *analyticsApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var q analytics.Query
	if err = ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to Query")
	}

	dash, err := api.svc.Dashboard(ctx.Request().Context(), usr, q)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
