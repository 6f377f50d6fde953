package comment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/article"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("comment not found")
	errNotPublished   = "comments are only allowed on published articles"
	errTooDeep        = "replies cannot be nested deeper than 5 levels"
	errParentMismatch = "the parent comment belongs to another article"
	errParentDeleted  = "cannot reply to a deleted comment"

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateComment(ctx context.Context, c Comment) (Comment, error)
		GetComment(ctx context.Context, id string) (Comment, error)
		ListComments(ctx context.Context, articleID string) ([]Comment, error)
		UpdateComment(ctx context.Context, c Comment) (Comment, error)
		DeleteComment(ctx context.Context, id string) error
		CountReplies(ctx context.Context, id string) (int, error)
	}

	ArticleGetter interface {
		GetByID(ctx context.Context, id string) (article.Article, error)
	}

	Service struct {
		repo     Repository
		articles ArticleGetter
		validate *validator.Validate
	}
)

func NewService(repo Repository, articles ArticleGetter, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(articles, "articles"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Service{repo: repo, articles: articles, validate: validate}
}

func (svc *Service) get(ctx context.Context, id string) (Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Comment{}, ErrNotFound
	}
	return svc.repo.GetComment(ctx, id)
}

// depth returns how deep c is nested, counting c itself.
func (svc *Service) depth(ctx context.Context, c Comment) (int, error) {
	depth := 1
	for c.ParentID != "" && depth <= MaxDepth {
		parent, err := svc.repo.GetComment(ctx, c.ParentID)
		if err != nil {
			return 0, errors.Wrap(err, "getting parent comment")
		}
		c = parent
		depth++
	}
	return depth, nil
}

func (svc *Service) Create(ctx context.Context, actor user.User, articleID string, nc NewComment) (Comment, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Comment{}, err
	}
	art, err := svc.articles.GetByID(ctx, articleID)
	if err != nil {
		return Comment{}, err
	}
	if !art.IsPublished() {
		return Comment{}, core.NewConflictError(errNotPublished)
	}

	if nc.ParentID != "" {
		parent, err := svc.get(ctx, nc.ParentID)
		if err == ErrNotFound {
			return Comment{}, core.NewFieldError("parent_id", ErrNotFound.Error())
		} else if err != nil {
			return Comment{}, err
		}
		if parent.ArticleID != art.ID {
			return Comment{}, core.NewFieldError("parent_id", errParentMismatch)
		}
		if parent.IsDeleted {
			return Comment{}, core.NewFieldError("parent_id", errParentDeleted)
		}
		depth, err := svc.depth(ctx, parent)
		if err != nil {
			return Comment{}, err
		}
		if depth >= MaxDepth {
			return Comment{}, core.NewFieldError("parent_id", errTooDeep)
		}
	}

	now := NowFunc().UTC()
	return svc.repo.CreateComment(ctx, Comment{
		ID:        uuid.New().String(),
		ArticleID: art.ID,
		AuthorID:  actor.ID,
		ParentID:  nc.ParentID,
		Content:   nc.Content,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// List returns the comment tree of an article visible to actor.
func (svc *Service) List(ctx context.Context, actor user.User, articleID string) ([]*Node, error) {
	art, err := svc.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.Visible(art, actor) {
		return nil, article.ErrNotFound
	}
	comments, err := svc.repo.ListComments(ctx, art.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing comments")
	}
	return BuildTree(comments), nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateComment) (Comment, error) {
	c, err := svc.get(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	if c.AuthorID != actor.ID || c.IsDeleted {
		return Comment{}, core.ErrForbidden
	}
	if err = uc.Validate(svc.validate); err != nil {
		return Comment{}, err
	}
	c.Content = uc.Content
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateComment(ctx, c)
}

// Delete removes a comment; one with replies is blanked instead so the thread survives.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	c, err := svc.get(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != actor.ID && !actor.IsModerator() {
		return core.ErrForbidden
	}
	replies, err := svc.repo.CountReplies(ctx, c.ID)
	if err != nil {
		return errors.Wrap(err, "counting replies")
	}
	if replies == 0 {
		return svc.repo.DeleteComment(ctx, c.ID)
	}
	c.Content = ""
	c.IsDeleted = true
	c.UpdatedAt = NowFunc().UTC()
	_, err = svc.repo.UpdateComment(ctx, c)
	return err
}
