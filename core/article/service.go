package article

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("article not found")

	NowFunc = time.Now // mockable
)

const statusTemplate = "article_status"

type (
	GetFilter struct {
		ID   string
		Slug string
	}

	Repository interface {
		CreateArticle(ctx context.Context, art Article) (Article, error)
		GetArticle(ctx context.Context, filter GetFilter) (Article, error)
		// QueryArticles applies AND operation on available QueryFilter fields and returns the total before paging.
		QueryArticles(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Article, int, error)
		UpdateArticle(ctx context.Context, art Article) (Article, error)
		IncrementViewCount(ctx context.Context, id string) error
		DeleteArticle(ctx context.Context, id string) error
		SlugExists(ctx context.Context, slug string) (bool, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo            Repository
		users           UserGetter
		mailer          core.EmailService
		frontendBaseURL string
		validate        *validator.Validate
		logger          core.Logger
	}
)

func NewService(
	repo Repository,
	users UserGetter,
	mailer core.EmailService,
	frontendBaseURL string,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(mailer, "mailer"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:            repo,
		users:           users,
		mailer:          mailer,
		frontendBaseURL: frontendBaseURL,
		validate:        validate,
		logger:          logger,
	}
}

func (svc *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := core.Slugify(title)
	if base == "" {
		base = "article"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := svc.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", errors.Wrap(err, "checking slug")
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Create stores a new draft written by actor.
func (svc *Service) Create(ctx context.Context, actor user.User, content Content) (Article, error) {
	if err := content.Validate(svc.validate); err != nil {
		return Article{}, err
	}
	slug, err := svc.uniqueSlug(ctx, content.Title)
	if err != nil {
		return Article{}, err
	}
	now := NowFunc().UTC()
	art := Article{
		ID:        uuid.New().String(),
		AuthorID:  actor.ID,
		Slug:      slug,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	art.setContent(content)
	return svc.repo.CreateArticle(ctx, art)
}

func (a *Article) setContent(c Content) {
	a.Title = c.Title
	a.Excerpt = c.Excerpt
	a.Content = c.Content
	a.Category = c.Category
	a.Tags = c.Tags
	if a.Tags == nil {
		a.Tags = []string{}
	}
	a.CoverImageURL = c.CoverImageURL
}

// Update replaces the content of an article.
// The slug follows the title until the article is first published.
func (svc *Service) Update(ctx context.Context, actor user.User, id string, content Content) (Article, error) {
	art, err := svc.GetByID(ctx, id)
	if err != nil {
		return Article{}, err
	}
	if !Editable(art, actor) {
		return Article{}, core.ErrForbidden
	}
	if err = content.Validate(svc.validate); err != nil {
		return Article{}, err
	}

	if content.Title != art.Title && art.PublishedAt == nil {
		if art.Slug, err = svc.uniqueSlug(ctx, content.Title); err != nil {
			return Article{}, err
		}
	}
	art.setContent(content)
	if art.Status == StatusRejected && art.AuthorID == actor.ID {
		art.Status = StatusDraft
	}
	art.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateArticle(ctx, art)
}

// Transition applies a workflow action and notifies the author of changes made by someone else.
func (svc *Service) Transition(ctx context.Context, actor user.User, id string, tr Transition) (Article, error) {
	if err := tr.Validate(svc.validate); err != nil {
		return Article{}, err
	}
	art, err := svc.GetByID(ctx, id)
	if err != nil {
		return Article{}, err
	}
	status, err := NextStatus(art, actor, tr.Action, tr.Note)
	if err != nil {
		return Article{}, err
	}

	now := NowFunc().UTC()
	art.Status = status
	art.UpdatedAt = now
	if workflow[tr.Action].moderatorOnly {
		art.ReviewedBy = actor.ID
		art.ReviewNote = tr.Note
	}
	if status == StatusPublished && art.PublishedAt == nil {
		art.PublishedAt = &now
	}

	if art, err = svc.repo.UpdateArticle(ctx, art); err != nil {
		return Article{}, err
	}
	if art.AuthorID != actor.ID {
		svc.notify(ctx, art)
	}
	return art, nil
}

func (svc *Service) notify(ctx context.Context, art Article) {
	author, err := svc.users.GetByID(ctx, art.AuthorID)
	if err != nil {
		svc.logger.Warn("article.notify: getting author", err)
		return
	}
	if !author.Notifiable() {
		return
	}
	to := mail.Address{Name: author.Name, Address: author.Email}
	data := map[string]string{
		"Name":   core.Salutation(to),
		"Title":  art.Title,
		"Status": strings.ToLower(strings.ReplaceAll(art.Status, "_", " ")),
		"Note":   art.ReviewNote,
	}
	svc.mailer.SendMessages(core.NewTemplatedMessage(to, "Your article status changed", statusTemplate, data, svc.frontendBaseURL))
}

// GetByID returns any article, regardless of its status.
func (svc *Service) GetByID(ctx context.Context, id string) (Article, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Article{}, ErrNotFound
	}
	return svc.repo.GetArticle(ctx, GetFilter{ID: id})
}

// Read returns the article with the given slug or ID as seen by actor (zero for anonymous readers).
// Reading a published article written by someone else counts a view.
func (svc *Service) Read(ctx context.Context, actor user.User, slugOrID string) (Article, error) {
	slugOrID = core.CleanString(slugOrID)
	filter := GetFilter{Slug: strings.ToLower(slugOrID)}
	if _, err := uuid.Parse(slugOrID); err == nil {
		filter = GetFilter{ID: slugOrID}
	}
	art, err := svc.repo.GetArticle(ctx, filter)
	if err != nil {
		return Article{}, err
	}
	if !Visible(art, actor) {
		return Article{}, ErrNotFound
	}
	if art.IsPublished() && art.AuthorID != actor.ID {
		if err = svc.repo.IncrementViewCount(ctx, art.ID); err != nil {
			svc.logger.Warn("article.Read: counting view", err)
		} else {
			art.ViewCount++
		}
	}
	return art, nil
}

func (svc *Service) query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Article, int, error) {
	filter.Clean()
	if err := svc.validate.Struct(filter); err != nil {
		return nil, 0, err
	}
	page.Clean()
	return svc.repo.QueryArticles(ctx, filter, ordering, page)
}

// ListPublished lists what the public can read.
func (svc *Service) ListPublished(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Article, int, error) {
	filter.Status = StatusPublished
	filter.AuthorID = ""
	return svc.query(ctx, &filter, ordering, page)
}

// ListMine lists the articles written by actor, in any status.
func (svc *Service) ListMine(ctx context.Context, actor user.User, filter QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Article, int, error) {
	filter.AuthorID = actor.ID
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "updated_at"}}
	}
	return svc.query(ctx, &filter, ordering, page)
}

// ModerationQueue lists articles for moderators, oldest first. It defaults to PENDING articles.
func (svc *Service) ModerationQueue(ctx context.Context, actor user.User, filter QueryFilter, page core.Page) ([]Article, int, error) {
	if !actor.IsModerator() {
		return nil, 0, core.ErrForbidden
	}
	if core.CleanString(filter.Status) == "" {
		filter.Status = StatusPending
	}
	return svc.query(ctx, &filter, []core.DBOrdering{{Field: "updated_at", Ascending: true}}, page)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	art, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !Deletable(art, actor) {
		return core.ErrForbidden
	}
	return svc.repo.DeleteArticle(ctx, art.ID)
}
