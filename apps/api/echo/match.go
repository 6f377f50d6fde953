package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core/finaid"
	"github.com/Benouakrim/Academora-02-sub002/core/match"
)

type matchApi struct {
	svc    *match.Service
	finaid *finaid.Service
}

func registerMatchAPI(g *echo.Group, auth authChain, svc *match.Service, finaidSvc *finaid.Service) {
	api := matchApi{svc: svc, finaid: finaidSvc}

	mg := g.Group("/match")
	mg.GET("/presets", api.presets)
	mg.POST("/score", api.score, auth...)
	mg.POST("/rank", api.rank, auth...)

	fg := g.Group("/financial-aid", auth...)
	fg.POST("/estimate", api.estimate)
	fg.GET("/efc", api.efc)
	fg.POST("/efc", api.efc)
}

// Handlers

func (api *matchApi) presets(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Presets())
}

func (api *matchApi) score(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data match.ScoreRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreRequest")
	}

	res, err := api.svc.Score(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "scoring university")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *matchApi) rank(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data match.RankRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RankRequest")
	}

	res, err := api.svc.Rank(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "ranking universities")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *matchApi) estimate(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data EstimateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EstimateRequest")
	}

	est, err := api.finaid.Estimate(ctx.Request().Context(), usr.ID, data.UniversityID, data.Input)
	if err != nil {
		return errors.Wrap(err, "estimating net price")
	}
	return ctx.JSON(http.StatusOK, est)
}

// efc uses the body input when posted, the caller's financial profile otherwise.
func (api *matchApi) efc(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var in *finaid.Input
	if ctx.Request().Method == http.MethodPost {
		in = new(finaid.Input)
		if err = ctx.Bind(in); err != nil {
			return errors.Wrap(err, "binding to Input")
		}
	}

	res, err := api.finaid.EFC(ctx.Request().Context(), usr.ID, in)
	if err != nil {
		return errors.Wrap(err, "computing EFC")
	}
	return ctx.JSON(http.StatusOK, res)
}

type EstimateRequest struct {
	UniversityID string        `json:"university_id"`
	Input        *finaid.Input `json:"input"`
}
