package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core/article"
	"github.com/Benouakrim/Academora-02-sub002/core/comment"
)

type articleApi struct {
	svc      *article.Service
	comments *comment.Service
}

func registerArticleAPI(g *echo.Group, auth, optionalAuth authChain, svc *article.Service, commentSvc *comment.Service) {
	api := articleApi{svc: svc, comments: commentSvc}

	ag := g.Group("/articles")

	// anonymous readers see published articles only
	ag.GET("", api.list)
	ag.GET("/:id", api.retrieve, optionalAuth...)
	ag.GET("/:id/comments", api.listComments, optionalAuth...)

	ag.GET("/mine", api.listMine, auth...)
	ag.GET("/moderation", api.moderationQueue, auth.with(moderatorMiddleware())...)
	ag.POST("", api.create, auth...)
	ag.PUT("/:id", api.update, auth...)
	ag.POST("/:id/transition", api.transition, auth...)
	ag.DELETE("/:id", api.destroy, auth...)
	ag.POST("/:id/comments", api.createComment, auth...)

	cg := g.Group("/comments", auth...)
	cg.PUT("/:id", api.updateComment)
	cg.DELETE("/:id", api.destroyComment)
}

// Handlers

func (api *articleApi) list(ctx echo.Context) error {
	var filter article.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	arts, total, err := api.svc.ListPublished(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "listing articles")
	}
	if arts == nil {
		arts = []article.Article{}
	}
	return ctx.JSON(http.StatusOK, newPageResult(arts, total, page))
}

func (api *articleApi) listMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter article.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	arts, total, err := api.svc.ListMine(ctx.Request().Context(), usr, filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "listing own articles")
	}
	if arts == nil {
		arts = []article.Article{}
	}
	return ctx.JSON(http.StatusOK, newPageResult(arts, total, page))
}

func (api *articleApi) moderationQueue(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter article.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	arts, total, err := api.svc.ModerationQueue(ctx.Request().Context(), usr, filter, page)
	if err != nil {
		return errors.Wrap(err, "listing moderation queue")
	}
	if arts == nil {
		arts = []article.Article{}
	}
	return ctx.JSON(http.StatusOK, newPageResult(arts, total, page))
}

func (api *articleApi) retrieve(ctx echo.Context) error {
	art, err := api.svc.Read(ctx.Request().Context(), optionalContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reading article")
	}
	return ctx.JSON(http.StatusOK, art)
}

func (api *articleApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data article.Content
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Content")
	}

	art, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating article")
	}
	return ctx.JSON(http.StatusCreated, art)
}

func (api *articleApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data article.Content
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Content")
	}

	art, err := api.svc.Update(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating article")
	}
	return ctx.JSON(http.StatusOK, art)
}

func (api *articleApi) transition(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data article.Transition
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Transition")
	}

	art, err := api.svc.Transition(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "transitioning article")
	}
	return ctx.JSON(http.StatusOK, art)
}

func (api *articleApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting article")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *articleApi) listComments(ctx echo.Context) error {
	tree, err := api.comments.List(ctx.Request().Context(), optionalContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing comments")
	}
	if tree == nil {
		tree = []*comment.Node{}
	}
	return ctx.JSON(http.StatusOK, tree)
}

func (api *articleApi) createComment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data comment.NewComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}

	c, err := api.comments.Create(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating comment")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *articleApi) updateComment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data comment.UpdateComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateComment")
	}

	c, err := api.comments.Update(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating comment")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *articleApi) destroyComment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.comments.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
