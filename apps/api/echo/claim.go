package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core/claim"
)

type claimApi struct {
	svc *claim.Service
}

func registerClaimAPI(g *echo.Group, auth authChain, svc *claim.Service) {
	api := claimApi{svc: svc}

	cg := g.Group("/claims")

	// the verification link is opened from the contact mailbox, possibly without a session
	cg.POST("/verify", api.verify)

	cg.POST("", api.submit, auth...)
	cg.GET("", api.query, auth.with(moderatorMiddleware())...)
	cg.GET("/mine", api.listMine, auth...)
	cg.GET("/:id", api.retrieve, auth...)
	cg.POST("/:id/review", api.review, auth.with(moderatorMiddleware())...)
	cg.POST("/:id/documents", api.addDocuments, auth...)
	cg.POST("/:id/withdraw", api.withdraw, auth...)
	cg.POST("/:id/resend-verification", api.resendVerification, auth...)
}

// Handlers

func (api *claimApi) verify(ctx echo.Context) error {
	var data claim.Verification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Verification")
	}

	c, err := api.svc.Verify(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "verifying claim")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *claimApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data claim.NewClaim
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClaim")
	}

	c, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "submitting claim")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *claimApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter claim.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	claims, total, err := api.svc.Query(ctx.Request().Context(), usr, filter, page)
	if err != nil {
		return errors.Wrap(err, "querying claims")
	}
	if claims == nil {
		claims = []claim.Claim{}
	}
	return ctx.JSON(http.StatusOK, newPageResult(claims, total, page))
}

func (api *claimApi) listMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	claims, total, err := api.svc.ListMine(ctx.Request().Context(), usr, page)
	if err != nil {
		return errors.Wrap(err, "listing own claims")
	}
	if claims == nil {
		claims = []claim.Claim{}
	}
	return ctx.JSON(http.StatusOK, newPageResult(claims, total, page))
}

func (api *claimApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting claim")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *claimApi) review(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data claim.Review
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}

	c, err := api.svc.Review(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing claim")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *claimApi) addDocuments(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data claim.Documents
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Documents")
	}

	c, err := api.svc.AddDocuments(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding claim documents")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *claimApi) withdraw(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.Withdraw(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "withdrawing claim")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *claimApi) resendVerification(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.ResendVerification(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "resending claim verification")
	}
	return ctx.NoContent(http.StatusNoContent)
}
