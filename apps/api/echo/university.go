package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core/university"
)

type universityApi struct {
	svc *university.Service
}

func registerUniversityAPI(g *echo.Group, auth authChain, svc *university.Service) {
	api := universityApi{svc: svc}

	ug := g.Group("/universities")

	// un-authed endpoints
	ug.GET("", api.search)
	ug.GET("/suggest", api.suggest)
	ug.GET("/compare", api.compare)
	ug.GET("/:id", api.retrieve)

	// authed endpoints; admins or the owner of a claimed university
	ug.POST("", api.create, auth...)
	ug.PUT("/:id", api.update, auth...)
	ug.DELETE("/:id", api.destroy, auth...)
	ug.POST("/:id/save", api.save, auth...)
	ug.DELETE("/:id/save", api.unsave, auth...)

	g.GET("/users/me/saved-universities", api.listSaved, auth...)
}

// Handlers

func (api *universityApi) search(ctx echo.Context) error {
	filter := new(university.SearchFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to SearchFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	univs, total, err := api.svc.Search(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "searching universities")
	}
	if univs == nil {
		univs = []university.University{}
	}
	return ctx.JSON(http.StatusOK, newPageResult(univs, total, page))
}

func (api *universityApi) suggest(ctx echo.Context) error {
	refs, err := api.svc.Suggest(ctx.Request().Context(), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "suggesting universities")
	}
	if refs == nil {
		refs = []university.NameRef{}
	}
	return ctx.JSON(http.StatusOK, refs)
}

func (api *universityApi) compare(ctx echo.Context) error {
	cmp, err := api.svc.Compare(ctx.Request().Context(), queryList(ctx, "id")...)
	if err != nil {
		return errors.Wrap(err, "comparing universities")
	}
	return ctx.JSON(http.StatusOK, cmp)
}

func (api *universityApi) retrieve(ctx echo.Context) error {
	univ, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting university")
	}
	saves, err := api.svc.SaveCount(ctx.Request().Context(), univ.ID)
	if err != nil {
		return errors.Wrap(err, "counting saves")
	}
	return ctx.JSON(http.StatusOK, UniversityDetail{University: univ, Saves: saves})
}

func (api *universityApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data university.Attributes
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Attributes")
	}

	univ, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating university")
	}
	return ctx.JSON(http.StatusCreated, univ)
}

func (api *universityApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data university.Attributes
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Attributes")
	}

	univ, err := api.svc.Update(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating university")
	}
	return ctx.JSON(http.StatusOK, univ)
}

func (api *universityApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting university")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *universityApi) save(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data SaveRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}

	saved, err := api.svc.Save(ctx.Request().Context(), usr.ID, ctx.Param("id"), data.Note)
	if err != nil {
		return errors.Wrap(err, "saving university")
	}
	return ctx.JSON(http.StatusOK, saved)
}

func (api *universityApi) unsave(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Unsave(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing saved university")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *universityApi) listSaved(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	saved, err := api.svc.ListSaved(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing saved universities")
	}
	if saved == nil {
		saved = []university.SavedUniversity{}
	}
	return ctx.JSON(http.StatusOK, saved)
}

type (
	UniversityDetail struct {
		university.University
		Saves int `json:"saves"`
	}

	SaveRequest struct {
		Note string `json:"note"`
	}
)
